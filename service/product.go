package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"bar-order-api/cache"
	"bar-order-api/media"
	"bar-order-api/models"
	"bar-order-api/store"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const maxProductNameLen = 100

type ProductInput struct {
	Name                   *string                        `json:"name"`
	Category               *models.ProductCategory        `json:"category"`
	AlcoholContent         *decimal.Decimal               `json:"alcohol_content"`
	Price                  *decimal.Decimal               `json:"price"`
	TemperatureRequirement *models.TemperatureRequirement `json:"temperature_requirement"`
	Description            *string                        `json:"description"`
}

// ValidateProduct checks a product body. With partial set, omitted
// fields are allowed.
func ValidateProduct(in ProductInput, partial bool) error {
	required := func(field string, present bool) error {
		if !present && !partial {
			return invalid(field, "This field is required.")
		}
		return nil
	}

	if err := required("name", in.Name != nil); err != nil {
		return err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return invalid("name", "This field may not be blank.")
		}
		if utf8.RuneCountInString(name) > maxProductNameLen {
			return invalid("name", "Ensure this field has no more than %d characters.", maxProductNameLen)
		}
	}

	if err := required("category", in.Category != nil); err != nil {
		return err
	}
	if in.Category != nil && !in.Category.Valid() {
		return invalid("category", "\"%s\" is not a valid choice.", *in.Category)
	}

	if err := required("alcohol_content", in.AlcoholContent != nil); err != nil {
		return err
	}
	if in.AlcoholContent != nil {
		if err := checkDecimal("alcohol_content", *in.AlcoholContent, 5, 2); err != nil {
			return err
		}
	}

	if err := required("price", in.Price != nil); err != nil {
		return err
	}
	if in.Price != nil {
		if err := checkDecimal("price", *in.Price, 10, 2); err != nil {
			return err
		}
	}

	if in.TemperatureRequirement != nil && !in.TemperatureRequirement.Valid() {
		return invalid("temperature_requirement", "\"%s\" is not a valid choice.", *in.TemperatureRequirement)
	}
	return nil
}

// productFields lists the columns to write. A full update resets an omitted
// temperature requirement to its default.
func productFields(in ProductInput, partial bool) map[string]interface{} {
	fields := map[string]interface{}{}
	if in.Name != nil {
		fields["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Category != nil {
		fields["category"] = *in.Category
	}
	if in.AlcoholContent != nil {
		fields["alcohol_content"] = in.AlcoholContent.Round(2)
	}
	if in.Price != nil {
		fields["price"] = in.Price.Round(2)
	}
	if in.TemperatureRequirement != nil {
		fields["temperature_requirement"] = *in.TemperatureRequirement
	} else if !partial {
		fields["temperature_requirement"] = models.ServeCold
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	return fields
}

type ProductService struct {
	products *store.ProductRepo
	cache    cache.ProductCache
	media    *media.Storage
	log      zerolog.Logger
}

// NewProductService wires the catalog; productCache may be nil
func NewProductService(products *store.ProductRepo, productCache cache.ProductCache, storage *media.Storage, log zerolog.Logger) *ProductService {
	return &ProductService{products: products, cache: productCache, media: storage, log: log}
}

// List serves from the cache when possible. Cache trouble is logged and
// the database answers instead.
func (s *ProductService) List(ctx context.Context) ([]models.Product, error) {
	if s.cache != nil {
		products, ok, err := s.cache.GetProducts(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("product cache read failed")
		} else if ok {
			return products, nil
		}
	}

	// read the generation before the rows so a concurrent write wins
	var gen int64
	cacheable := s.cache != nil
	if cacheable {
		var err error
		if gen, err = s.cache.Generation(ctx); err != nil {
			s.log.Warn().Err(err).Msg("product cache generation read failed")
			cacheable = false
		}
	}

	products, err := s.products.List(ctx)
	if err != nil {
		return nil, translate("list products", "product", 0, err)
	}
	if cacheable {
		if err := s.cache.SetProducts(ctx, gen, products); err != nil {
			s.log.Warn().Err(err).Msg("product cache write failed")
		}
	}
	return products, nil
}

func (s *ProductService) Get(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, translate("get product", "product", id, err)
	}
	return product, nil
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := ValidateProduct(in, false); err != nil {
		return nil, err
	}
	product := &models.Product{
		Name:                   strings.TrimSpace(*in.Name),
		Category:               *in.Category,
		AlcoholContent:         in.AlcoholContent.Round(2),
		Price:                  in.Price.Round(2),
		TemperatureRequirement: models.ServeCold,
		Description:            in.Description,
	}
	if in.TemperatureRequirement != nil {
		product.TemperatureRequirement = *in.TemperatureRequirement
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, translate("create product", "product", 0, err)
	}
	s.invalidate(ctx)
	s.log.Info().Uint("product_id", product.ID).Str("name", product.Name).Msg("product created")
	return product, nil
}

// Update overwrites the given fields; partial distinguishes PATCH from PUT
func (s *ProductService) Update(ctx context.Context, id uint, in ProductInput, partial bool) (*models.Product, error) {
	if err := ValidateProduct(in, partial); err != nil {
		return nil, err
	}
	product, err := s.products.Update(ctx, id, productFields(in, partial))
	if err != nil {
		return nil, translate("update product", "product", id, err)
	}
	s.invalidate(ctx)
	return product, nil
}

// Delete fails with ProtectedReferenceError while order details use it
func (s *ProductService) Delete(ctx context.Context, id uint) error {
	product, err := s.products.Get(ctx, id)
	if err != nil {
		return translate("delete product", "product", id, err)
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return translate("delete product", "product", id, err)
	}
	s.invalidate(ctx)
	if product.Image != nil {
		s.removeFile(*product.Image)
	}
	s.log.Info().Uint("product_id", id).Msg("product deleted")
	return nil
}

// AttachImage stores the upload and points the product at it. The stored
// extension follows the detected content, never the client's file name. The
// new file is removed again when the row cannot be updated.
func (s *ProductService) AttachImage(ctx context.Context, id uint, r io.Reader) (*models.Product, error) {
	current, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, translate("attach image", "product", id, err)
	}

	ext, body, err := media.SniffImage(r)
	if errors.Is(err, media.ErrNotImage) {
		return nil, invalid("file", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}
	if err != nil {
		return nil, &PersistenceError{Op: "read image", Err: err}
	}

	rel, err := s.media.Save("products", ext, body)
	if err != nil {
		return nil, &PersistenceError{Op: "store image", Err: err}
	}
	product, err := s.products.Update(ctx, id, map[string]interface{}{"image": rel})
	if err != nil {
		s.removeFile(rel)
		return nil, translate("attach image", "product", id, err)
	}
	if current.Image != nil && *current.Image != rel {
		s.removeFile(*current.Image)
	}
	s.invalidate(ctx)
	s.log.Info().Uint("product_id", id).Str("image", rel).Msg("product image stored")
	return product, nil
}

// ImageURL is the server-relative URL of a stored image path
func (s *ProductService) ImageURL(rel string) string {
	return s.media.URL(rel)
}

func (s *ProductService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("product cache invalidation failed")
	}
}

func (s *ProductService) removeFile(rel string) {
	if err := s.media.Remove(rel); err != nil {
		s.log.Warn().Err(err).Str("image", rel).Msg("remove image file failed")
	}
}
