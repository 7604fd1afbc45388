package seed

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"techzone-storefront/internal/domain"
	"techzone-storefront/internal/logging"
	categoryrepo "techzone-storefront/internal/repository/category"
	productrepo "techzone-storefront/internal/repository/product"
)

type productSeed struct {
	Name        string
	Description string
	Price       string
	Stock       int
	Image       string
	Category    string
	Specs       map[string]interface{}
}

var categories = []string{"Laptops", "Teclados", "Mouse", "Audífonos", "Micrófonos"}

var products = []productSeed{
	{
		Name:        "ASUS Zenbook 14 OLED",
		Description: "Ultrabook de 14 pulgadas con pantalla OLED 2.8K",
		Price:       "1299.90",
		Stock:       8,
		Image:       "/img/zenbook-14.webp",
		Category:    "Laptops",
		Specs:       map[string]interface{}{"cpu": "Intel Core Ultra 7", "ram": "16GB", "storage": "1TB SSD"},
	},
	{
		Name:        "Lenovo Legion 5",
		Description: "Laptop gamer con RTX 4060",
		Price:       "1549.00",
		Stock:       4,
		Image:       "/img/legion-5.webp",
		Category:    "Laptops",
		Specs:       map[string]interface{}{"cpu": "Ryzen 7 7840HS", "gpu": "RTX 4060", "ram": "16GB"},
	},
	{
		Name:        "Logitech G Pro X TKL",
		Description: "Teclado mecánico sin teclado numérico",
		Price:       "199.99",
		Stock:       15,
		Image:       "/img/gpro-tkl.webp",
		Category:    "Teclados",
		Specs:       map[string]interface{}{"switch": "Mecánico", "rgb": true},
	},
	{
		Name:        "Razer DeathAdder V3",
		Description: "Mouse gamer ergonómico",
		Price:       "89.99",
		Stock:       25,
		Image:       "/img/deathadder-v3.webp",
		Category:    "Mouse",
		Specs:       map[string]interface{}{"dpi": 30000},
	},
	{
		Name:        "HyperX Cloud II",
		Description: "Audífonos con sonido envolvente 7.1",
		Price:       "99.00",
		Stock:       12,
		Image:       "/img/cloud-ii.webp",
		Category:    "Audífonos",
	},
	{
		Name:        "Fifine K669B",
		Description: "Micrófono USB de condensador",
		Price:       "39.90",
		Stock:       30,
		Image:       "/img/k669b.webp",
		Category:    "Micrófonos",
		Specs:       map[string]interface{}{"connection": "USB"},
	},
}

// Apply upserts the demo catalog for manual testing. It is idempotent.
func Apply(ctx context.Context, cats categoryrepo.Repository, prods productrepo.Repository, logger *zap.Logger) error {
	logger = logging.OrNop(logger)
	for _, name := range categories {
		if _, err := cats.Upsert(ctx, domain.Category{Name: name}); err != nil {
			return fmt.Errorf("upsert category %s: %w", name, err)
		}
	}

	for _, p := range products {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return fmt.Errorf("price for %s: %w", p.Name, err)
		}
		if _, err := prods.Upsert(ctx, domain.Product{
			Name:        p.Name,
			Description: p.Description,
			Price:       price,
			Stock:       p.Stock,
			Image:       p.Image,
			Specs:       p.Specs,
			Category:    p.Category,
		}); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Name, err)
		}
	}
	logger.Info("seed applied", zap.Int("categories", len(categories)), zap.Int("products", len(products)))
	return nil
}
