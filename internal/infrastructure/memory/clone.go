package memory

import "github.com/jhoicas/conteo-inventario/internal/domain/entity"

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneRequest(r *entity.InventoryRequest) *entity.InventoryRequest {
	c := *r
	c.Filter = entity.CatalogFilter{
		Codes:      cloneStrings(r.Filter.Codes),
		Divisions:  cloneStrings(r.Filter.Divisions),
		Categories: cloneStrings(r.Filter.Categories),
		Groups:     cloneStrings(r.Filter.Groups),
	}
	c.Locations = cloneStrings(r.Locations)
	c.Attachments = cloneStrings(r.Attachments)
	return &c
}

func cloneItem(i *entity.CountItem) *entity.CountItem {
	c := *i
	return &c
}

func cloneAudit(d *entity.AuditDocument) *entity.AuditDocument {
	c := *d
	if d.Samples != nil {
		c.Samples = append([]entity.AuditSample(nil), d.Samples...)
	}
	return &c
}

func cloneApproval(a *entity.AdjustmentApproval) *entity.AdjustmentApproval {
	c := *a
	c.Approvers = cloneStrings(a.Approvers)
	return &c
}
