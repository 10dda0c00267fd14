// Package catalog lee el catálogo maestro y las existencias por ubicación desde la base del ERP
// (MySQL, solo lectura).
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	appinv "github.com/jhoicas/conteo-inventario/internal/application/inventory"
	"github.com/jhoicas/conteo-inventario/internal/domain/entity"
	"github.com/jhoicas/conteo-inventario/pkg/config"
)

var _ appinv.CatalogSource = (*Client)(nil)

var centsFactor = decimal.NewFromInt(100)

// Client consulta las vistas erp_catalog_products y erp_location_stock.
type Client struct {
	db      *sql.DB
	timeout time.Duration
}

// Open abre el pool MySQL y verifica la conexión.
func Open(ctx context.Context, cfg config.CatalogConfig) (*Client, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("CATALOG_DSN vacío")
	}
	mcfg, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse CATALOG_DSN: %w", err)
	}
	mcfg.ParseTime = true
	db, err := sql.Open("mysql", mcfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("abrir catálogo: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping catálogo: %w", err)
	}
	return NewClient(db, cfg.QueryTimeout), nil
}

// NewClient envuelve un *sql.DB ya abierto. timeout 0 = sin límite propio.
func NewClient(db *sql.DB, timeout time.Duration) *Client {
	return &Client{db: db, timeout: timeout}
}

// Close cierra el pool.
func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// ProductsByFilter productos por códigos explícitos o por la unión de los conjuntos de clasificación.
func (c *Client) ProductsByFilter(ctx context.Context, f entity.CatalogFilter) ([]entity.CatalogProduct, error) {
	var conds []string
	var args []any
	if f.HasCodes() {
		conds = append(conds, inClause("code", f.Codes, &args))
	} else {
		if len(f.Divisions) > 0 {
			conds = append(conds, inClause("division_code", f.Divisions, &args))
		}
		if len(f.Categories) > 0 {
			conds = append(conds, inClause("category_code", f.Categories, &args))
		}
		if len(f.Groups) > 0 {
			conds = append(conds, inClause("group_code", f.Groups, &args))
		}
	}
	if len(conds) == 0 {
		return nil, nil
	}
	query := `SELECT code, description, description2, division_code, division_name,
		category_code, category_name, group_code, group_name,
		subgroup_code, subgroup_name, brand_code, brand_name
		FROM erp_catalog_products WHERE ` + strings.Join(conds, " OR ") + ` ORDER BY code`

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("consultar catálogo: %w", err)
	}
	defer rows.Close()

	var out []entity.CatalogProduct
	for rows.Next() {
		var r productRow
		if err := rows.Scan(&r.code, &r.description, &r.description2, &r.divisionCode, &r.divisionName,
			&r.categoryCode, &r.categoryName, &r.groupCode, &r.groupName,
			&r.subgroupCode, &r.subgroupName, &r.brandCode, &r.brandName); err != nil {
			return nil, fmt.Errorf("leer producto: %w", err)
		}
		if p, ok := r.toEntity(); ok {
			out = append(out, p)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recorrer catálogo: %w", err)
	}
	return out, nil
}

// StockByLocation existencias de los códigos dados en la ubicación. Cantidades a unidades y costos a
// centavos, redondeo al entero más cercano.
func (c *Client) StockByLocation(ctx context.Context, locationCode string, codes []string) ([]entity.LocationStock, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	args := []any{locationCode}
	query := `SELECT item_code, description, description2, division_code, category_code, group_code,
		unit_measure_code, quantity, unit_cost
		FROM erp_location_stock WHERE location_code = ? AND ` + inClause("item_code", codes, &args) + ` ORDER BY item_code`

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("consultar existencias %s: %w", locationCode, err)
	}
	defer rows.Close()

	var out []entity.LocationStock
	for rows.Next() {
		var r stockRow
		if err := rows.Scan(&r.itemCode, &r.description, &r.description2, &r.divisionCode, &r.categoryCode,
			&r.groupCode, &r.unitMeasure, &r.quantity, &r.unitCost); err != nil {
			return nil, fmt.Errorf("leer existencia: %w", err)
		}
		s, ok, err := r.toEntity()
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, s)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recorrer existencias: %w", err)
	}
	return out, nil
}

// inClause "col IN (?, ?, ...)" y agrega los valores a args.
func inClause(col string, values []string, args *[]any) string {
	marks := make([]string, len(values))
	for i, v := range values {
		marks[i] = "?"
		*args = append(*args, v)
	}
	return col + " IN (" + strings.Join(marks, ", ") + ")"
}

type productRow struct {
	code, description, description2 sql.NullString
	divisionCode, divisionName      sql.NullString
	categoryCode, categoryName      sql.NullString
	groupCode, groupName            sql.NullString
	subgroupCode, subgroupName      sql.NullString
	brandCode, brandName            sql.NullString
}

func (r productRow) toEntity() (entity.CatalogProduct, bool) {
	code := strings.TrimSpace(r.code.String)
	if code == "" {
		return entity.CatalogProduct{}, false
	}
	return entity.CatalogProduct{
		Code:         code,
		Description:  strings.TrimSpace(r.description.String),
		Description2: strings.TrimSpace(r.description2.String),
		DivisionCode: strings.TrimSpace(r.divisionCode.String),
		DivisionName: strings.TrimSpace(r.divisionName.String),
		CategoryCode: strings.TrimSpace(r.categoryCode.String),
		CategoryName: strings.TrimSpace(r.categoryName.String),
		GroupCode:    strings.TrimSpace(r.groupCode.String),
		GroupName:    strings.TrimSpace(r.groupName.String),
		SubgroupCode: strings.TrimSpace(r.subgroupCode.String),
		SubgroupName: strings.TrimSpace(r.subgroupName.String),
		BrandCode:    strings.TrimSpace(r.brandCode.String),
		BrandName:    strings.TrimSpace(r.brandName.String),
	}, true
}

type stockRow struct {
	itemCode, description, description2   sql.NullString
	divisionCode, categoryCode, groupCode sql.NullString
	unitMeasure                           sql.NullString
	quantity, unitCost                    sql.NullString
}

func (r stockRow) toEntity() (entity.LocationStock, bool, error) {
	code := strings.TrimSpace(r.itemCode.String)
	if code == "" {
		return entity.LocationStock{}, false, nil
	}
	qty, err := parseDecimal(r.quantity)
	if err != nil {
		return entity.LocationStock{}, false, fmt.Errorf("cantidad de %s: %w", code, err)
	}
	cost, err := parseDecimal(r.unitCost)
	if err != nil {
		return entity.LocationStock{}, false, fmt.Errorf("costo de %s: %w", code, err)
	}
	return entity.LocationStock{
		ItemCode:        code,
		Description:     strings.TrimSpace(r.description.String),
		Description2:    strings.TrimSpace(r.description2.String),
		DivisionCode:    strings.TrimSpace(r.divisionCode.String),
		CategoryCode:    strings.TrimSpace(r.categoryCode.String),
		GroupCode:       strings.TrimSpace(r.groupCode.String),
		UnitMeasureCode: strings.TrimSpace(r.unitMeasure.String),
		SystemInventory: qty.Round(0).IntPart(),
		UnitCost:        cost.Mul(centsFactor).Round(0).IntPart(),
	}, true, nil
}

// parseDecimal NULL -> 0.
func parseDecimal(v sql.NullString) (decimal.Decimal, error) {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.TrimSpace(v.String))
}
