package workflow

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/krittapak/catalog-panel/internal/apperr"
	"github.com/krittapak/catalog-panel/internal/audit"
	"github.com/krittapak/catalog-panel/internal/model"
	"github.com/krittapak/catalog-panel/internal/notify"
	"github.com/krittapak/catalog-panel/internal/panel"
	"github.com/krittapak/catalog-panel/pkg/validator"
)

// Backend is the subset of the upstream catalog API the workflow drives.
// Every endpoint is independent and non-transactional; the workflow itself
// provides the all-or-nothing illusion on top.
type Backend interface {
	CreateProduct(ctx context.Context, product model.Product) (string, error)
	UploadImages(ctx context.Context, productCode string, uploads []model.PendingUpload) error
	DeleteProduct(ctx context.Context, productCode string) error
	UpdateProduct(ctx context.Context, productCode string, fields model.ProductFields) error
	DeleteImage(ctx context.Context, imageID uuid.UUID) error
	ListProducts(ctx context.Context) ([]model.Product, error)
	Statistics(ctx context.Context) (model.Statistics, error)
}

type CreateProductParams struct {
	Code        string  `validate:"required"`
	Name        string  `validate:"required"`
	Description string  `validate:"required"`
	Price       float64 `validate:"gte=0"`
	Category    string  `validate:"required"`
	Unit        string  `validate:"required"`
	Shelf       string  `validate:"required"`
	Quantity    int     `validate:"gte=0"`
}

func (p CreateProductParams) fields() model.ProductFields {
	return model.ProductFields{
		Code:        p.Code,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Quantity:    p.Quantity,
		Category:    p.Category,
		Unit:        p.Unit,
		Shelf:       p.Shelf,
	}
}

// UpdateProductParams is the edit-time field set. Description, category,
// unit and shelf may be cleared on edit, unlike on create.
type UpdateProductParams struct {
	Name        string  `validate:"required"`
	Description string
	Price       float64 `validate:"gte=0"`
	Category    string
	Unit        string
	Shelf       string
	Quantity    int `validate:"gte=0"`
}

func (p UpdateProductParams) fields(code string) model.ProductFields {
	return model.ProductFields{
		Code:        code,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Quantity:    p.Quantity,
		Category:    p.Category,
		Unit:        p.Unit,
		Shelf:       p.Shelf,
	}
}

// Catalog drives every catalog mutation as a single user-perceived
// transaction. Each invocation ends with success or exactly one error from
// the apperr taxonomy, and exactly one notification. Nothing is retried
// automatically.
//
// Product codes are assumed, not verified, to be unique; a collision is the
// backend's to reject and surfaces here as a plain creation failure.
type Catalog struct {
	logger    *slog.Logger
	validator validator.Validator
	backend   Backend
	state     *panel.State
	notifier  notify.Notifier
	audit     audit.Publisher
}

func NewCatalog(
	logger *slog.Logger,
	v validator.Validator,
	backend Backend,
	state *panel.State,
	notifier notify.Notifier,
	auditPub audit.Publisher,
) *Catalog {
	return &Catalog{
		logger:    logger.With(slog.String("service", "workflow")),
		validator: v,
		backend:   backend,
		state:     state,
		notifier:  notifier,
		audit:     auditPub,
	}
}

// CreateProductWithImages runs the two-phase creation sequence: create the
// product with an empty image list, then attach the staged uploads. If the
// upload step fails, the freshly created product is deleted again so no
// imageless product is left behind. The three calls are strictly
// sequential; the compensating delete's own failure is logged, never
// surfaced — the original upload error is what the caller sees.
//
// Terminal states: the product exists with all requested images, the
// product exists with zero images (only when no uploads were staged), or no
// product exists.
func (c *Catalog) CreateProductWithImages(ctx context.Context, params CreateProductParams, uploads []model.PendingUpload) error {
	if err := c.validator.Validate(params); err != nil {
		c.notifier.Notify(ctx, notify.Error("Create product", "product fields failed validation"))
		return apperr.ErrValidationFailed.Wrap(err)
	}

	code, err := c.backend.CreateProduct(ctx, params.fields().Product())
	if err == nil && code == "" {
		// success without a usable product code: nothing to clean up,
		// nothing to attach images to
		c.logger.ErrorContext(ctx, "create returned no product code",
			slog.String("product_code", params.Code))
	}
	if err != nil || code == "" {
		c.notifier.Notify(ctx, notify.Error("Create product", "could not create product, please try again"))
		return apperr.ErrCreationFailed.Wrap(err)
	}

	if len(uploads) > 0 {
		if err := c.backend.UploadImages(ctx, code, uploads); err != nil {
			if delErr := c.backend.DeleteProduct(ctx, code); delErr != nil {
				// known inconsistency window: an imageless product stays
				// behind server-side while the caller still sees a failure
				c.logger.ErrorContext(ctx, "compensating delete failed after upload failure",
					slog.String("product_code", code),
					slog.Any("error", delErr))
			}
			c.notifier.Notify(ctx, notify.Error("Create product", "could not upload product images, please try again"))
			return apperr.ErrUploadFailed.Wrap(err)
		}
	}

	c.publishAudit(ctx, audit.TopicProductCreated, code, audit.ProductCreatedPayload{
		ProductCode: code,
		ProductName: params.Name,
		ImageCount:  len(uploads),
		OccurredAt:  now(),
	})
	c.notifier.Notify(ctx, notify.Success("Create product", "product created"))
	return nil
}

// UpdateProduct replaces a product's metadata in a single call. There is no
// partial mutation to compensate for.
func (c *Catalog) UpdateProduct(ctx context.Context, code string, params UpdateProductParams) error {
	if code == "" {
		c.notifier.Notify(ctx, notify.Error("Update product", "product fields failed validation"))
		return apperr.ErrValidationFailed
	}
	if err := c.validator.Validate(params); err != nil {
		c.notifier.Notify(ctx, notify.Error("Update product", "product fields failed validation"))
		return apperr.ErrValidationFailed.Wrap(err)
	}

	if err := c.backend.UpdateProduct(ctx, code, params.fields(code)); err != nil {
		c.notifier.Notify(ctx, notify.Error("Update product", "could not update product, please try again"))
		return apperr.ErrUpdateFailed.Wrap(err)
	}

	c.publishAudit(ctx, audit.TopicProductUpdated, code, audit.ProductUpdatedPayload{
		ProductCode: code,
		ProductName: params.Name,
		OccurredAt:  now(),
	})
	c.notifier.Notify(ctx, notify.Success("Update product", "product updated"))
	return nil
}

// DeleteProduct removes a product in a single call. On failure the local
// snapshot keeps the product's prior state, which may be stale if the
// deletion partially succeeded server-side.
func (c *Catalog) DeleteProduct(ctx context.Context, code string) error {
	if err := c.backend.DeleteProduct(ctx, code); err != nil {
		c.notifier.Notify(ctx, notify.Error("Delete product", "could not delete product, please try again"))
		return apperr.ErrDeletionFailed.Wrap(err)
	}

	c.publishAudit(ctx, audit.TopicProductDeleted, code, audit.ProductDeletedPayload{
		ProductCode: code,
		OccurredAt:  now(),
	})
	c.notifier.Notify(ctx, notify.Success("Delete product", "product deleted"))
	return nil
}

// AttachImages uploads staged images to an existing product. This is the
// edit-time variant of the upload step: no product was created, so nothing
// is compensated — on failure the caller keeps its staged uploads and may
// retry manually.
func (c *Catalog) AttachImages(ctx context.Context, code string, uploads []model.PendingUpload) error {
	if code == "" || len(uploads) == 0 {
		c.notifier.Notify(ctx, notify.Error("Upload images", "no images staged for upload"))
		return apperr.ErrValidationFailed
	}

	if err := c.backend.UploadImages(ctx, code, uploads); err != nil {
		c.notifier.Notify(ctx, notify.Error("Upload images", "could not upload product images, please try again"))
		return apperr.ErrUploadFailed.Wrap(err)
	}

	c.publishAudit(ctx, audit.TopicImagesAttached, code, audit.ImagesAttachedPayload{
		ProductCode: code,
		ImageCount:  len(uploads),
		OccurredAt:  now(),
	})
	c.notifier.Notify(ctx, notify.Success("Upload images", "product images uploaded"))
	return nil
}

// RemoveImage deletes a single image by its identifier, then prunes it from
// the local snapshot. The prune is a no-op when the identifier is already
// gone, so repeated removals never corrupt the ordered list.
func (c *Catalog) RemoveImage(ctx context.Context, code string, imageID uuid.UUID) error {
	if err := c.backend.DeleteImage(ctx, imageID); err != nil {
		c.notifier.Notify(ctx, notify.Error("Remove image", "could not delete product image"))
		return apperr.ErrImageDeletion.Wrap(err)
	}

	if !c.state.RemoveImage(code, imageID) {
		c.logger.WarnContext(ctx, "removed image was not in the local snapshot",
			slog.String("product_code", code),
			slog.String("image_id", imageID.String()))
	}

	c.publishAudit(ctx, audit.TopicImageRemoved, code, audit.ImageRemovedPayload{
		ProductCode: code,
		ImageID:     imageID.String(),
		OccurredAt:  now(),
	})
	c.notifier.Notify(ctx, notify.Success("Remove image", "product image deleted"))
	return nil
}

// Refresh re-fetches the product list and the statistics as two
// independent, unordered calls and replaces each snapshot wholesale. A
// refresh racing another refresh may leave the older result visible; no
// generation counter guards against that.
func (c *Catalog) Refresh(ctx context.Context) {
	var wg sync.WaitGroup

	wg.Go(func() {
		products, err := c.backend.ListProducts(ctx)
		if err != nil {
			c.logger.ErrorContext(ctx, "refresh products failed", slog.Any("error", err))
			c.notifier.Notify(ctx, notify.Error("Load products", "could not load products, please try again"))
			return
		}
		c.state.SetProducts(products)
	})

	wg.Go(func() {
		stats, err := c.backend.Statistics(ctx)
		if err != nil {
			c.logger.ErrorContext(ctx, "refresh statistics failed", slog.Any("error", err))
			c.notifier.Notify(ctx, notify.Error("Load statistics", "could not load statistics, please try again"))
			return
		}
		c.state.SetStatistics(stats)
	})

	wg.Wait()
}

func (c *Catalog) publishAudit(ctx context.Context, topic, code string, payload any) {
	ev, err := audit.NewEvent(topic, code, payload)
	if err != nil {
		c.logger.ErrorContext(ctx, "build audit event failed",
			slog.String("topic", topic), slog.Any("error", err))
		return
	}

	if err := c.audit.Publish(ctx, ev); err != nil {
		c.logger.WarnContext(ctx, "publish audit event failed",
			slog.String("topic", topic), slog.Any("error", err))
	}
}
