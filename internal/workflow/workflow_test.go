package workflow_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krittapak/catalog-panel/internal/apperr"
	"github.com/krittapak/catalog-panel/internal/audit"
	"github.com/krittapak/catalog-panel/internal/model"
	"github.com/krittapak/catalog-panel/internal/notify"
	"github.com/krittapak/catalog-panel/internal/panel"
	"github.com/krittapak/catalog-panel/internal/workflow"
	"github.com/krittapak/catalog-panel/pkg/validator"
)

type fakeBackend struct {
	mu    sync.Mutex
	calls []string

	products map[string]model.Product
	uploaded map[string][]model.PendingUpload
	stats    model.Statistics

	emptyCode      bool
	createErr      error
	uploadErr      error
	deleteErr      error
	updateErr      error
	deleteImageErr error
	listErr        error
	statsErr       error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		products: make(map[string]model.Product),
		uploaded: make(map[string][]model.PendingUpload),
	}
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeBackend) recordedCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeBackend) CreateProduct(_ context.Context, p model.Product) (string, error) {
	f.record("create " + p.Code)
	if f.createErr != nil {
		return "", f.createErr
	}
	if f.emptyCode {
		return "", nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[p.Code] = p
	return p.Code, nil
}

func (f *fakeBackend) UploadImages(_ context.Context, code string, uploads []model.PendingUpload) error {
	f.record("upload " + code)
	if f.uploadErr != nil {
		return f.uploadErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded[code] = uploads
	return nil
}

func (f *fakeBackend) DeleteProduct(_ context.Context, code string) error {
	f.record("delete " + code)
	if f.deleteErr != nil {
		return f.deleteErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.products, code)
	return nil
}

func (f *fakeBackend) UpdateProduct(_ context.Context, code string, fields model.ProductFields) error {
	f.record("update " + code)
	if f.updateErr != nil {
		return f.updateErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	p := fields.Product()
	if old, ok := f.products[code]; ok {
		p.ImageIDs = old.ImageIDs
	}
	f.products[code] = p
	return nil
}

func (f *fakeBackend) DeleteImage(_ context.Context, imageID uuid.UUID) error {
	f.record("delete-image " + imageID.String())
	return f.deleteImageErr
}

func (f *fakeBackend) ListProducts(_ context.Context) ([]model.Product, error) {
	f.record("list")
	if f.listErr != nil {
		return nil, f.listErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (f *fakeBackend) Statistics(_ context.Context) (model.Statistics, error) {
	f.record("stats")
	if f.statsErr != nil {
		return model.Statistics{}, f.statsErr
	}
	return f.stats, nil
}

type recordingNotifier struct {
	mu            sync.Mutex
	notifications []notify.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
}

func (r *recordingNotifier) all() []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Notification, len(r.notifications))
	copy(out, r.notifications)
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingPublisher) Publish(_ context.Context, ev audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingPublisher) all() []audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]audit.Event, len(r.events))
	copy(out, r.events)
	return out
}

func newTestCatalog(fb *fakeBackend) (*workflow.Catalog, *panel.State, *recordingNotifier, *recordingPublisher) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	state := panel.NewState()
	notifier := &recordingNotifier{}
	publisher := &recordingPublisher{}

	wf := workflow.NewCatalog(logger, validator.NewDefaultValidator(), fb, state, notifier, publisher)
	return wf, state, notifier, publisher
}

func validCreateParams(code string) workflow.CreateProductParams {
	return workflow.CreateProductParams{
		Code:        code,
		Name:        "Trail Runner",
		Description: "Lightweight trail running shoe",
		Price:       1290.50,
		Category:    "shoes",
		Unit:        "pair",
		Shelf:       "A-01",
		Quantity:    12,
	}
}

func stagedUploads(n int) []model.PendingUpload {
	uploads := make([]model.PendingUpload, 0, n)
	for i := 0; i < n; i++ {
		uploads = append(uploads, model.PendingUpload{
			Filename:    "image.jpg",
			ContentType: "image/jpeg",
			Data:        []byte("not really a jpeg"),
		})
	}
	return uploads
}

func errorCode(t *testing.T, err error) string {
	t.Helper()
	var aErr apperr.Error
	require.ErrorAs(t, err, &aErr)
	return aErr.Code()
}

func TestCreateProductWithImages(t *testing.T) {
	ctx := context.Background()

	t.Run("no uploads ends after the create call", func(t *testing.T) {
		fb := newFakeBackend()
		wf, _, notifier, publisher := newTestCatalog(fb)

		err := wf.CreateProductWithImages(ctx, validCreateParams("P1"), nil)

		require.NoError(t, err)
		assert.Equal(t, []string{"create P1"}, fb.recordedCalls())
		assert.Empty(t, fb.products["P1"].ImageIDs)

		notifications := notifier.all()
		require.Len(t, notifications, 1)
		assert.Equal(t, notify.LevelSuccess, notifications[0].Level)

		events := publisher.all()
		require.Len(t, events, 1)
		assert.Equal(t, audit.TopicProductCreated, events[0].Topic)
		assert.Equal(t, "P1", events[0].ProductCode)
	})

	t.Run("create then upload, in order", func(t *testing.T) {
		fb := newFakeBackend()
		wf, _, notifier, _ := newTestCatalog(fb)

		err := wf.CreateProductWithImages(ctx, validCreateParams("P2"), stagedUploads(2))

		require.NoError(t, err)
		assert.Equal(t, []string{"create P2", "upload P2"}, fb.recordedCalls())
		assert.Len(t, fb.uploaded["P2"], 2)
		assert.Len(t, notifier.all(), 1)
	})

	t.Run("upload failure compensates with delete", func(t *testing.T) {
		fb := newFakeBackend()
		fb.uploadErr = errors.New("boom")
		wf, _, notifier, publisher := newTestCatalog(fb)

		err := wf.CreateProductWithImages(ctx, validCreateParams("P3"), stagedUploads(2))

		assert.Equal(t, "UPLOAD_FAILED", errorCode(t, err))
		assert.Equal(t, []string{"create P3", "upload P3", "delete P3"}, fb.recordedCalls())
		assert.NotContains(t, fb.products, "P3")

		notifications := notifier.all()
		require.Len(t, notifications, 1)
		assert.Equal(t, notify.LevelError, notifications[0].Level)
		assert.Empty(t, publisher.all())
	})

	t.Run("upload failure still reported when the compensating delete fails too", func(t *testing.T) {
		fb := newFakeBackend()
		fb.uploadErr = errors.New("boom")
		fb.deleteErr = errors.New("also boom")
		wf, _, notifier, _ := newTestCatalog(fb)

		err := wf.CreateProductWithImages(ctx, validCreateParams("P3"), stagedUploads(2))

		// the upload error is the one surfaced, not the delete's outcome
		assert.Equal(t, "UPLOAD_FAILED", errorCode(t, err))
		assert.Equal(t, []string{"create P3", "upload P3", "delete P3"}, fb.recordedCalls())
		assert.Len(t, notifier.all(), 1)
	})

	t.Run("create failure issues no further calls", func(t *testing.T) {
		fb := newFakeBackend()
		fb.createErr = errors.New("boom")
		wf, _, notifier, _ := newTestCatalog(fb)

		err := wf.CreateProductWithImages(ctx, validCreateParams("P4"), stagedUploads(2))

		assert.Equal(t, "CREATION_FAILED", errorCode(t, err))
		assert.Equal(t, []string{"create P4"}, fb.recordedCalls())
		assert.Len(t, notifier.all(), 1)
	})

	t.Run("success without a usable product code is a creation failure", func(t *testing.T) {
		fb := newFakeBackend()
		fb.emptyCode = true
		wf, _, _, _ := newTestCatalog(fb)

		err := wf.CreateProductWithImages(ctx, validCreateParams("P5"), stagedUploads(1))

		assert.Equal(t, "CREATION_FAILED", errorCode(t, err))
		assert.Equal(t, []string{"create P5"}, fb.recordedCalls())
	})
}

func TestCreateProductValidationBlocksSubmission(t *testing.T) {
	ctx := context.Background()

	mutations := map[string]func(*workflow.CreateProductParams){
		"empty code":        func(p *workflow.CreateProductParams) { p.Code = "" },
		"empty name":        func(p *workflow.CreateProductParams) { p.Name = "" },
		"empty description": func(p *workflow.CreateProductParams) { p.Description = "" },
		"negative price":    func(p *workflow.CreateProductParams) { p.Price = -1 },
		"empty category":    func(p *workflow.CreateProductParams) { p.Category = "" },
		"empty unit":        func(p *workflow.CreateProductParams) { p.Unit = "" },
		"empty shelf":       func(p *workflow.CreateProductParams) { p.Shelf = "" },
		"negative quantity": func(p *workflow.CreateProductParams) { p.Quantity = -1 },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			fb := newFakeBackend()
			wf, _, notifier, _ := newTestCatalog(fb)

			params := validCreateParams("P1")
			mutate(&params)

			err := wf.CreateProductWithImages(ctx, params, nil)

			assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))
			assert.Empty(t, fb.recordedCalls(), "no network call may be issued")
			assert.Len(t, notifier.all(), 1)
		})
	}
}

func TestUpdateProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("updated fields round-trip through a list fetch", func(t *testing.T) {
		fb := newFakeBackend()
		wf, state, _, publisher := newTestCatalog(fb)

		require.NoError(t, wf.CreateProductWithImages(ctx, validCreateParams("P1"), nil))

		params := workflow.UpdateProductParams{
			Name:        "Road Runner",
			Description: "",
			Price:       990,
			Category:    "footwear",
			Unit:        "pair",
			Shelf:       "B-07",
			Quantity:    3,
		}
		require.NoError(t, wf.UpdateProduct(ctx, "P1", params))

		wf.Refresh(ctx)

		got, ok := state.Product("P1")
		require.True(t, ok)
		assert.Equal(t, "Road Runner", got.Name)
		assert.Equal(t, "", got.Description)
		assert.Equal(t, 990.0, got.Price)
		assert.Equal(t, "footwear", got.Category)
		assert.Equal(t, "pair", got.Unit)
		assert.Equal(t, "B-07", got.Shelf)
		assert.Equal(t, 3, got.Quantity)

		events := publisher.all()
		require.Len(t, events, 2)
		assert.Equal(t, audit.TopicProductUpdated, events[1].Topic)
	})

	t.Run("failure leaves everything unchanged", func(t *testing.T) {
		fb := newFakeBackend()
		wf, _, notifier, _ := newTestCatalog(fb)

		require.NoError(t, wf.CreateProductWithImages(ctx, validCreateParams("P1"), nil))
		fb.updateErr = errors.New("boom")

		err := wf.UpdateProduct(ctx, "P1", workflow.UpdateProductParams{Name: "X", Price: 1, Quantity: 1})

		assert.Equal(t, "UPDATE_FAILED", errorCode(t, err))
		assert.Equal(t, "Trail Runner", fb.products["P1"].Name)
		assert.Len(t, notifier.all(), 2)
	})

	t.Run("invalid fields block the call", func(t *testing.T) {
		fb := newFakeBackend()
		wf, _, _, _ := newTestCatalog(fb)

		err := wf.UpdateProduct(ctx, "P1", workflow.UpdateProductParams{Name: "", Price: 1, Quantity: 1})

		assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))
		assert.Empty(t, fb.recordedCalls())
	})
}

func TestDeleteProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes and audits", func(t *testing.T) {
		fb := newFakeBackend()
		wf, _, _, publisher := newTestCatalog(fb)

		require.NoError(t, wf.CreateProductWithImages(ctx, validCreateParams("P1"), nil))
		require.NoError(t, wf.DeleteProduct(ctx, "P1"))

		assert.NotContains(t, fb.products, "P1")
		events := publisher.all()
		require.Len(t, events, 2)
		assert.Equal(t, audit.TopicProductDeleted, events[1].Topic)
	})

	t.Run("failure is reported and audited nowhere", func(t *testing.T) {
		fb := newFakeBackend()
		fb.deleteErr = errors.New("boom")
		wf, _, notifier, publisher := newTestCatalog(fb)

		err := wf.DeleteProduct(ctx, "P1")

		assert.Equal(t, "DELETION_FAILED", errorCode(t, err))
		assert.Len(t, notifier.all(), 1)
		assert.Empty(t, publisher.all())
	})
}

func TestAttachImages(t *testing.T) {
	ctx := context.Background()

	t.Run("uploads without creating anything", func(t *testing.T) {
		fb := newFakeBackend()
		wf, _, _, publisher := newTestCatalog(fb)

		require.NoError(t, wf.AttachImages(ctx, "P1", stagedUploads(3)))

		assert.Equal(t, []string{"upload P1"}, fb.recordedCalls())
		events := publisher.all()
		require.Len(t, events, 1)
		assert.Equal(t, audit.TopicImagesAttached, events[0].Topic)
	})

	t.Run("failure performs no compensation", func(t *testing.T) {
		fb := newFakeBackend()
		fb.uploadErr = errors.New("boom")
		wf, _, _, _ := newTestCatalog(fb)

		err := wf.AttachImages(ctx, "P1", stagedUploads(1))

		assert.Equal(t, "UPLOAD_FAILED", errorCode(t, err))
		// no delete call: there is no freshly created product to roll back
		assert.Equal(t, []string{"upload P1"}, fb.recordedCalls())
	})

	t.Run("nothing staged is a validation failure", func(t *testing.T) {
		fb := newFakeBackend()
		wf, _, _, _ := newTestCatalog(fb)

		err := wf.AttachImages(ctx, "P1", nil)

		assert.Equal(t, "VALIDATION_FAILED", errorCode(t, err))
		assert.Empty(t, fb.recordedCalls())
	})
}

func TestRemoveImage(t *testing.T) {
	ctx := context.Background()

	seedState := func(state *panel.State, ids ...uuid.UUID) {
		state.SetProducts([]model.Product{{Code: "P1", Name: "Trail Runner", ImageIDs: ids}})
	}

	t.Run("prunes the identifier from the local list", func(t *testing.T) {
		fb := newFakeBackend()
		wf, state, _, publisher := newTestCatalog(fb)

		first, second := uuid.New(), uuid.New()
		seedState(state, first, second)

		require.NoError(t, wf.RemoveImage(ctx, "P1", first))

		got, ok := state.Product("P1")
		require.True(t, ok)
		assert.Equal(t, []uuid.UUID{second}, got.ImageIDs)

		events := publisher.all()
		require.Len(t, events, 1)
		assert.Equal(t, audit.TopicImageRemoved, events[0].Topic)
	})

	t.Run("repeat removal of a gone identifier never corrupts the list", func(t *testing.T) {
		fb := newFakeBackend()
		wf, state, _, _ := newTestCatalog(fb)

		first, second := uuid.New(), uuid.New()
		seedState(state, first, second)

		require.NoError(t, wf.RemoveImage(ctx, "P1", first))
		require.NoError(t, wf.RemoveImage(ctx, "P1", first))

		got, _ := state.Product("P1")
		assert.Equal(t, []uuid.UUID{second}, got.ImageIDs)
	})

	t.Run("backend failure leaves the local list untouched", func(t *testing.T) {
		fb := newFakeBackend()
		fb.deleteImageErr = errors.New("boom")
		wf, state, _, _ := newTestCatalog(fb)

		first := uuid.New()
		seedState(state, first)

		err := wf.RemoveImage(ctx, "P1", first)

		assert.Equal(t, "IMAGE_DELETION_FAILED", errorCode(t, err))
		got, _ := state.Product("P1")
		assert.Equal(t, []uuid.UUID{first}, got.ImageIDs)
	})
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces both snapshots", func(t *testing.T) {
		fb := newFakeBackend()
		fb.products["P1"] = model.Product{Code: "P1", Name: "Trail Runner"}
		fb.stats = model.Statistics{TotalProducts: 1, TotalQuantity: 12, TotalCategories: 1}
		wf, state, _, _ := newTestCatalog(fb)

		wf.Refresh(ctx)

		assert.Len(t, state.Products(), 1)
		assert.Equal(t, 1, state.Statistics().TotalProducts)
	})

	t.Run("a failed fetch keeps the previous snapshot", func(t *testing.T) {
		fb := newFakeBackend()
		fb.products["P1"] = model.Product{Code: "P1"}
		fb.stats = model.Statistics{TotalProducts: 1}
		wf, state, notifier, _ := newTestCatalog(fb)

		wf.Refresh(ctx)

		fb.listErr = errors.New("boom")
		delete(fb.products, "P1")
		wf.Refresh(ctx)

		// products kept from the previous refresh, statistics re-fetched
		assert.Len(t, state.Products(), 1)
		assert.Len(t, notifier.all(), 1)
	})
}
