// Package importer loads catalog CSV exports into the product and category
// tables.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"techzone-storefront/internal/domain"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type CategoryWriter interface {
	Upsert(ctx context.Context, category domain.Category) (*domain.Category, error)
}

type Kind string

const (
	KindProducts   Kind = "products"
	KindCategories Kind = "categories"
)

const specPrefix = "specs."

// DetectKind inspects the header row: a price column marks a product export,
// anything else with a name column is a category list.
func DetectKind(r io.Reader) (Kind, error) {
	headers, err := csv.NewReader(r).Read()
	if err != nil {
		return "", fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["price"]; ok {
		return KindProducts, nil
	}
	if _, ok := index["name"]; ok {
		return KindCategories, nil
	}
	return "", fmt.Errorf("%w: unrecognised csv headers %v", domain.ErrInvalidInput, headers)
}

// CSVImporter upserts catalog rows. Products with a category column also
// upsert that category first so the product can reference it.
type CSVImporter struct {
	reader     *csv.Reader
	products   ProductWriter
	categories CategoryWriter
	seen       map[string]struct{}
}

func NewCSVImporter(r io.Reader, products ProductWriter, categories CategoryWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader:     csvr,
		products:   products,
		categories: categories,
		seen:       map[string]struct{}{},
	}
}

// Run imports every row and returns how many products or categories were
// written.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	_, products := index["price"]
	if products && i.products == nil {
		return 0, errors.New("product writer is required for product imports")
	}

	imported := 0
	for line := 2; ; line++ {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row %d: %w", line, err)
		}
		if blank(record) {
			continue
		}

		if products {
			err = i.saveProduct(ctx, record, index, headers)
		} else {
			err = i.saveCategory(ctx, pick(record, index, "name"), pick(record, index, "slug"))
		}
		if err != nil {
			return imported, fmt.Errorf("row %d: %w", line, err)
		}
		imported++
	}
	return imported, nil
}

func (i *CSVImporter) saveProduct(ctx context.Context, record []string, index map[string]int, headers []string) error {
	name := pick(record, index, "name")
	if name == "" {
		return fmt.Errorf("%w: product name is required", domain.ErrInvalidInput)
	}
	price, err := decimal.NewFromString(pick(record, index, "price"))
	if err != nil {
		return fmt.Errorf("%w: invalid price for %q", domain.ErrInvalidInput, name)
	}
	stock := 0
	if raw := pick(record, index, "stock"); raw != "" {
		if stock, err = strconv.Atoi(raw); err != nil || stock < 0 {
			return fmt.Errorf("%w: invalid stock for %q", domain.ErrInvalidInput, name)
		}
	}

	category := pick(record, index, "category")
	if category != "" {
		if err := i.ensureCategory(ctx, category); err != nil {
			return err
		}
	}

	p := domain.Product{
		ID:          pick(record, index, "id"),
		Name:        name,
		Description: pick(record, index, "description"),
		Price:       price,
		Stock:       stock,
		Image:       pick(record, index, "image"),
		Category:    category,
		Specs:       parseSpecs(record, headers),
	}
	if _, err := i.products.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert product %q: %w", name, err)
	}
	return nil
}

func (i *CSVImporter) ensureCategory(ctx context.Context, name string) error {
	if _, ok := i.seen[name]; ok {
		return nil
	}
	if i.categories == nil {
		return nil
	}
	if _, err := i.categories.Upsert(ctx, domain.Category{Name: name}); err != nil {
		return fmt.Errorf("upsert category %q: %w", name, err)
	}
	i.seen[name] = struct{}{}
	return nil
}

func (i *CSVImporter) saveCategory(ctx context.Context, name, slug string) error {
	if name == "" {
		return fmt.Errorf("%w: category name is required", domain.ErrInvalidInput)
	}
	if i.categories == nil {
		return errors.New("category writer is required for category imports")
	}
	if _, err := i.categories.Upsert(ctx, domain.Category{Name: name, Slug: slug}); err != nil {
		return fmt.Errorf("upsert category %q: %w", name, err)
	}
	i.seen[name] = struct{}{}
	return nil
}

// parseSpecs collects "specs.<key>" columns. Values that look like booleans or
// numbers keep that type so the storefront filters can match on them.
func parseSpecs(record []string, headers []string) map[string]interface{} {
	specs := map[string]interface{}{}
	for pos, h := range headers {
		key := strings.TrimPrefix(strings.TrimSpace(h), specPrefix)
		if key == strings.TrimSpace(h) || key == "" || pos >= len(record) {
			continue
		}
		raw := strings.TrimSpace(record[pos])
		if raw == "" {
			continue
		}
		specs[key] = specValue(raw)
	}
	if len(specs) == 0 {
		return nil
	}
	return specs
}

func specValue(raw string) interface{} {
	if b, err := strconv.ParseBool(raw); err == nil && strings.ContainsAny(raw, "tfTF") {
		return b
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
