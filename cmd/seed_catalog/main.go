// seed_catalog genera un script SQL (MySQL) para poblar las tablas erp_catalog_products y
// erp_location_stock de un entorno de desarrollo a partir del export XML del ERP.
//
// Uso: go run ./cmd/seed_catalog [ruta/catalogo.xml]
// Por defecto busca catalogo.xml en el directorio actual.
// Escribe: testdata/erp_catalog_seed.sql
package main

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

type catalogo struct {
	Productos []producto `xml:"producto"`
}

type producto struct {
	Codigo          string       `xml:"codigo,attr"`
	Descripcion     string       `xml:"descripcion,attr"`
	Descripcion2    string       `xml:"descripcion2,attr"`
	Division        string       `xml:"division,attr"`
	NombreDivision  string       `xml:"nombre_division,attr"`
	Categoria       string       `xml:"categoria,attr"`
	NombreCategoria string       `xml:"nombre_categoria,attr"`
	Grupo           string       `xml:"grupo,attr"`
	NombreGrupo     string       `xml:"nombre_grupo,attr"`
	Subgrupo        string       `xml:"subgrupo,attr"`
	NombreSubgrupo  string       `xml:"nombre_subgrupo,attr"`
	Marca           string       `xml:"marca,attr"`
	NombreMarca     string       `xml:"nombre_marca,attr"`
	Unidad          string       `xml:"unidad,attr"`
	Existencias     []existencia `xml:"existencia"`
}

type existencia struct {
	Ubicacion string `xml:"ubicacion,attr"`
	Cantidad  string `xml:"cantidad,attr"`
	Costo     string `xml:"costo,attr"`
}

func main() {
	xmlPath := "catalogo.xml"
	if len(os.Args) > 1 {
		xmlPath = os.Args[1]
	}
	f, err := os.Open(xmlPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir XML: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	c, err := decodeCatalog(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Decodificar XML: %v\n", err)
		os.Exit(1)
	}

	moduleRoot := findModuleRoot()
	outPath := filepath.Join(moduleRoot, "testdata", "erp_catalog_seed.sql")
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Crear directorio: %v\n", err)
		os.Exit(1)
	}
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	products, stock, err := writeSeed(out, c)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Generar SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d productos, %d existencias\n", outPath, products, stock)
}

// decodeCatalog lee el export; el ERP lo emite en ISO-8859-1 o Windows-1252.
func decodeCatalog(r io.Reader) (*catalogo, error) {
	var c catalogo
	dec := xml.NewDecoder(r)
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		switch strings.ToUpper(charset) {
		case "ISO-8859-1", "ISO8859-1", "LATIN1":
			return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
		case "WINDOWS-1252", "CP1252":
			return transform.NewReader(input, charmap.Windows1252.NewDecoder()), nil
		}
		return input, nil
	}
	if err := dec.Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// writeSeed escribe tablas e INSERTs idempotentes. Productos sin código se descartan;
// cantidades y costos deben ser decimales válidos.
func writeSeed(w io.Writer, c *catalogo) (products, stock int, err error) {
	byCode := make(map[string]producto, len(c.Productos))
	for _, p := range c.Productos {
		p.Codigo = strings.TrimSpace(p.Codigo)
		if p.Codigo == "" {
			continue
		}
		byCode[p.Codigo] = p
	}
	codes := make([]string, 0, len(byCode))
	for code := range byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var b strings.Builder
	b.WriteString("-- Catálogo y existencias del ERP para desarrollo\n")
	b.WriteString("-- Generado desde el export XML del ERP\n\n")
	b.WriteString(schemaSQL)

	b.WriteString("\n-- 1. Productos\n")
	for _, code := range codes {
		p := byCode[code]
		fmt.Fprintf(&b, "INSERT INTO erp_catalog_products (code, description, description2, division_code, division_name, "+
			"category_code, category_name, group_code, group_name, subgroup_code, subgroup_name, brand_code, brand_name)\n")
		fmt.Fprintf(&b, "VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)\n",
			quote(p.Codigo), quote(p.Descripcion), quote(p.Descripcion2), quote(p.Division), quote(p.NombreDivision),
			quote(p.Categoria), quote(p.NombreCategoria), quote(p.Grupo), quote(p.NombreGrupo),
			quote(p.Subgrupo), quote(p.NombreSubgrupo), quote(p.Marca), quote(p.NombreMarca))
		b.WriteString("ON DUPLICATE KEY UPDATE description = VALUES(description);\n")
		products++
	}

	b.WriteString("\n-- 2. Existencias por ubicación\n")
	for _, code := range codes {
		p := byCode[code]
		for _, e := range p.Existencias {
			loc := strings.ToUpper(strings.TrimSpace(e.Ubicacion))
			if loc == "" {
				continue
			}
			qty, err := parseAmount(e.Cantidad)
			if err != nil {
				return 0, 0, fmt.Errorf("cantidad de %s en %s: %w", code, loc, err)
			}
			cost, err := parseAmount(e.Costo)
			if err != nil {
				return 0, 0, fmt.Errorf("costo de %s en %s: %w", code, loc, err)
			}
			fmt.Fprintf(&b, "INSERT INTO erp_location_stock (location_code, item_code, description, description2, "+
				"division_code, category_code, group_code, unit_measure_code, quantity, unit_cost)\n")
			fmt.Fprintf(&b, "VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s)\n",
				quote(loc), quote(code), quote(p.Descripcion), quote(p.Descripcion2), quote(p.Division),
				quote(p.Categoria), quote(p.Grupo), quote(p.Unidad), qty.String(), cost.String())
			b.WriteString("ON DUPLICATE KEY UPDATE quantity = VALUES(quantity), unit_cost = VALUES(unit_cost);\n")
			stock++
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return 0, 0, err
	}
	return products, stock, nil
}

const schemaSQL = `CREATE TABLE IF NOT EXISTS erp_catalog_products (
  code VARCHAR(50) PRIMARY KEY,
  description VARCHAR(255), description2 VARCHAR(255),
  division_code VARCHAR(20), division_name VARCHAR(120),
  category_code VARCHAR(20), category_name VARCHAR(120),
  group_code VARCHAR(20), group_name VARCHAR(120),
  subgroup_code VARCHAR(20), subgroup_name VARCHAR(120),
  brand_code VARCHAR(20), brand_name VARCHAR(120)
);
CREATE TABLE IF NOT EXISTS erp_location_stock (
  location_code VARCHAR(40) NOT NULL,
  item_code VARCHAR(50) NOT NULL,
  description VARCHAR(255), description2 VARCHAR(255),
  division_code VARCHAR(20), category_code VARCHAR(20), group_code VARCHAR(20),
  unit_measure_code VARCHAR(10),
  quantity DECIMAL(18,4), unit_cost DECIMAL(18,4),
  PRIMARY KEY (location_code, item_code)
);
`

// parseAmount vacío -> NULL lógico representado como 0.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func quote(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NULL"
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
