package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"techzone-storefront/internal/domain"
)

type stubProductRepo struct {
	items []domain.Product
}

type stubCategoryRepo struct {
	items []domain.Category
}

func (s *stubProductRepo) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	s.items = append(s.items, p)
	return &p, nil
}

func (s *stubCategoryRepo) Upsert(_ context.Context, c domain.Category) (*domain.Category, error) {
	s.items = append(s.items, c)
	return &c, nil
}

func TestCSVImporter_RunProducts(t *testing.T) {
	csvData := `id,name,description,price,stock,image,category,specs.dpi,specs.rgb,specs.switch
00000000-0000-0000-0000-000000000001,Razer Viper,Mouse liviano,79.90,12,/img/viper.webp,Mouse,20000,true,
,Logitech G413,Teclado,99.00,5,,Teclados,,false,Mecánico
,,,,,,,,,
,Zenbook 14,Ultrabook,1299.90,,,Laptops,,,`

	repo := &stubProductRepo{}
	catRepo := &stubCategoryRepo{}
	imp := NewCSVImporter(strings.NewReader(csvData), repo, catRepo)

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 products imported, got %d", count)
	}
	if len(repo.items) != 3 {
		t.Fatalf("expected 3 products saved, got %d", len(repo.items))
	}

	first := repo.items[0]
	if first.ID != "00000000-0000-0000-0000-000000000001" || first.Name != "Razer Viper" || first.Stock != 12 || first.Category != "Mouse" {
		t.Fatalf("unexpected product data: %+v", first)
	}
	if !first.Price.Equal(mustDecimal(t, "79.90")) {
		t.Fatalf("expected price 79.90, got %s", first.Price)
	}
	if first.Specs["dpi"] != int64(20000) || first.Specs["rgb"] != true {
		t.Fatalf("unexpected specs %+v", first.Specs)
	}
	if _, ok := first.Specs["switch"]; ok {
		t.Fatalf("empty spec cells should be skipped: %+v", first.Specs)
	}
	if repo.items[1].Specs["switch"] != "Mecánico" || repo.items[1].Specs["rgb"] != false {
		t.Fatalf("unexpected specs on second product %+v", repo.items[1].Specs)
	}
	if repo.items[2].Specs != nil || repo.items[2].Stock != 0 {
		t.Fatalf("expected no specs and zero stock, got %+v", repo.items[2])
	}

	if len(catRepo.items) != 3 {
		t.Fatalf("expected 3 category upserts, got %d", len(catRepo.items))
	}
}

func TestCSVImporter_RunCategoriesOnce(t *testing.T) {
	csvData := `name,price,category
A,1.00,Mouse
B,2.00,Mouse`
	catRepo := &stubCategoryRepo{}
	_, err := NewCSVImporter(strings.NewReader(csvData), &stubProductRepo{}, catRepo).Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if len(catRepo.items) != 1 {
		t.Fatalf("expected category upserted once, got %d", len(catRepo.items))
	}
}

func TestCSVImporter_RejectsBadRows(t *testing.T) {
	cases := map[string]string{
		"missing name":   "name,price\n,10.00",
		"bad price":      "name,price\nMouse,abc",
		"negative stock": "name,price,stock\nMouse,10.00,-1",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			repo := &stubProductRepo{}
			count, err := NewCSVImporter(strings.NewReader(data), repo, nil).Run(context.Background())
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected invalid input, got %v", err)
			}
			if count != 0 || len(repo.items) != 0 {
				t.Fatalf("expected nothing imported, got %d", count)
			}
		})
	}
}

func TestCSVImporter_RunCategoriesFile(t *testing.T) {
	csvData := `name,slug
Laptops,laptops
Audífonos,
`
	catRepo := &stubCategoryRepo{}
	imp := NewCSVImporter(strings.NewReader(csvData), nil, catRepo)

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 categories imported, got %d", count)
	}
	if catRepo.items[0].Name != "Laptops" || catRepo.items[0].Slug != "laptops" {
		t.Fatalf("unexpected first category %+v", catRepo.items[0])
	}
	if catRepo.items[1].Name != "Audífonos" || catRepo.items[1].Slug != "" {
		t.Fatalf("unexpected second category %+v", catRepo.items[1])
	}
}

func TestDetectKind(t *testing.T) {
	kind, err := DetectKind(strings.NewReader("id,name,price\n1,Mouse,10"))
	if err != nil {
		t.Fatalf("detect product kind: %v", err)
	}
	if kind != KindProducts {
		t.Fatalf("expected product kind, got %s", kind)
	}

	kind, err = DetectKind(strings.NewReader("name,slug\nLaptops,laptops"))
	if err != nil {
		t.Fatalf("detect category kind: %v", err)
	}
	if kind != KindCategories {
		t.Fatalf("expected category kind, got %s", kind)
	}

	if _, err := DetectKind(strings.NewReader("foo,bar\n1,2")); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal: %v", err)
	}
	return d
}
