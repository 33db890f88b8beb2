package portalserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	identityports "github.com/Apurer/go-gin-restaurant-portal/internal/domains/identity/ports"
	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/application/form"
	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/application/payload"
	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/domain"
	restaurantports "github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/ports"
)

const (
	actionAddMenuItem    = "add-menu-item"
	actionRemoveMenuItem = "remove-menu-item:"

	// DefaultMaxUploadBytes bounds the restaurant image upload.
	DefaultMaxUploadBytes int64 = 5 << 20
)

var errImageTooLarge = errors.New("image file is too large")

// RestaurantAPI serves the manage-restaurant page.
type RestaurantAPI struct {
	gateway        restaurantports.Gateway
	submissions    restaurantports.SubmissionOrchestrator
	policy         form.HydrationPolicy
	maxUploadBytes int64
	inflight       *inflightSet
	logger         *slog.Logger
}

// RestaurantOption customises a RestaurantAPI.
type RestaurantOption func(*RestaurantAPI)

// WithHydrationPolicy selects how the form reacts to a freshly loaded restaurant.
func WithHydrationPolicy(policy form.HydrationPolicy) RestaurantOption {
	return func(api *RestaurantAPI) { api.policy = policy }
}

// WithMaxUploadBytes caps the image upload size.
func WithMaxUploadBytes(n int64) RestaurantOption {
	return func(api *RestaurantAPI) {
		if n > 0 {
			api.maxUploadBytes = n
		}
	}
}

// NewRestaurantAPI wires dependencies.
func NewRestaurantAPI(gateway restaurantports.Gateway, submissions restaurantports.SubmissionOrchestrator, logger *slog.Logger, opts ...RestaurantOption) RestaurantAPI {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	api := RestaurantAPI{
		gateway:        gateway,
		submissions:    submissions,
		policy:         form.HydrateAlways,
		maxUploadBytes: DefaultMaxUploadBytes,
		inflight:       newInflightSet(),
		logger:         logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&api)
		}
	}
	return api
}

type cuisineOption struct {
	Name    string
	Checked bool
}

type restaurantView struct {
	// Unavailable is set when the current restaurant could not be loaded;
	// the page then offers no form to submit.
	Unavailable bool
	Mode        restaurantports.SubmissionMode
	Draft       form.Draft
	Errors      form.FieldErrors
	Cuisines    []cuisineOption
	Button      form.Button
}

func (api *RestaurantAPI) view(token string, mode restaurantports.SubmissionMode, draft form.Draft, errs form.FieldErrors) restaurantView {
	options := make([]cuisineOption, 0, len(form.Cuisines))
	for _, name := range form.Cuisines {
		options = append(options, cuisineOption{Name: name, Checked: draft.HasCuisine(name)})
	}
	if errs == nil {
		errs = form.FieldErrors{}
	}
	return restaurantView{
		Mode:     mode,
		Draft:    draft,
		Errors:   errs,
		Cuisines: options,
		Button:   form.SubmitButton(api.inflight.active(token)),
	}
}

// Get /manage-restaurant
// Shows the restaurant form, hydrated from the remote API when a restaurant exists
func (api *RestaurantAPI) GetManageRestaurant(c *gin.Context) {
	ctx := c.Request.Context()
	existing, err := api.gateway.GetMyRestaurant(ctx)
	loadFailed := false
	if err != nil {
		if !errors.Is(err, restaurantports.ErrNotFound) {
			api.logger.ErrorContext(ctx, "failed to load restaurant", slog.String("error", err.Error()))
			loadFailed = true
		}
		existing = nil
	}

	if wantsJSON(c) {
		switch {
		case loadFailed:
			respondError(c, err)
		case existing == nil:
			respondError(c, restaurantports.ErrNotFound)
		default:
			c.JSON(http.StatusOK, existing)
		}
		return
	}

	if loadFailed {
		page := newPage(c, "Manage Restaurant", restaurantView{Unavailable: true})
		page.Error = "Unable to load your restaurant"
		renderPage(c, statusForError(err), "manage_restaurant.tmpl", page)
		return
	}

	f := form.New(form.WithLogger(api.logger), form.WithHydrationPolicy(api.policy))
	f.Observe(existing)
	mode := restaurantports.SubmissionCreate
	if existing != nil {
		mode = restaurantports.SubmissionUpdate
	}

	page := newPage(c, "Manage Restaurant", api.view(sessionToken(c), mode, f.Draft(), nil))
	if c.Query("saved") != "" {
		page.Flash = "Restaurant saved!"
	}
	renderPage(c, http.StatusOK, "manage_restaurant.tmpl", page)
}

// Post /manage-restaurant
// Validates the form and creates or updates the restaurant
func (api *RestaurantAPI) PostManageRestaurant(c *gin.Context) {
	ctx := c.Request.Context()
	token := sessionToken(c)

	draft, err := api.readDraft(c)
	if err != nil {
		if wantsJSON(c) {
			respondProblemBadRequest(c, err)
			return
		}
		page := newPage(c, "Manage Restaurant", api.view(token, restaurantports.SubmissionCreate, form.EmptyDraft(), nil))
		page.Error = "The restaurant form could not be read: " + err.Error()
		renderPage(c, http.StatusBadRequest, "manage_restaurant.tmpl", page)
		return
	}
	mode := submissionMode(c.PostForm("mode"))

	switch action := c.PostForm("action"); {
	case action == actionAddMenuItem:
		draft.AddMenuItem()
		renderPage(c, http.StatusOK, "manage_restaurant.tmpl", newPage(c, "Manage Restaurant", api.view(token, mode, draft, nil)))
		return
	case strings.HasPrefix(action, actionRemoveMenuItem):
		if i, err := strconv.Atoi(strings.TrimPrefix(action, actionRemoveMenuItem)); err == nil {
			draft.RemoveMenuItem(i)
		}
		renderPage(c, http.StatusOK, "manage_restaurant.tmpl", newPage(c, "Manage Restaurant", api.view(token, mode, draft, nil)))
		return
	}

	f := form.New(form.WithLogger(api.logger), form.WithHydrationPolicy(api.policy))
	f.Edit(draft)

	saved, err := api.submit(ctx, f, token, mode)

	var verr *form.ValidationError
	switch {
	case errors.As(err, &verr):
		if wantsJSON(c) {
			respondError(c, err)
			return
		}
		renderPage(c, http.StatusBadRequest, "manage_restaurant.tmpl", newPage(c, "Manage Restaurant", api.view(token, mode, f.Draft(), verr.Fields)))
	case err != nil:
		api.logger.ErrorContext(ctx, "failed to save restaurant", slog.String("mode", string(mode)), slog.String("error", err.Error()))
		if wantsJSON(c) {
			respondError(c, err)
			return
		}
		page := newPage(c, "Manage Restaurant", api.view(token, mode, f.Draft(), nil))
		page.Error = "Unable to save restaurant"
		renderPage(c, statusForError(err), "manage_restaurant.tmpl", page)
	case wantsJSON(c):
		code := http.StatusOK
		if mode == restaurantports.SubmissionCreate {
			code = http.StatusCreated
		}
		c.JSON(code, saved)
	default:
		c.Redirect(http.StatusSeeOther, "/manage-restaurant?saved=1")
	}
}

// submit delivers the form while the session's save is marked in flight.
func (api *RestaurantAPI) submit(ctx context.Context, f *form.Form, token string, mode restaurantports.SubmissionMode) (*domain.PersistedRestaurant, error) {
	done := api.inflight.begin(token)
	defer done()

	var saved *domain.PersistedRestaurant
	err := f.Submit(ctx, func(ctx context.Context, p payload.Payload) error {
		var err error
		saved, err = api.submissions.Deliver(ctx, restaurantports.Submission{Mode: mode, Payload: p, SessionID: token})
		return err
	})
	return saved, err
}

func (api *RestaurantAPI) readDraft(c *gin.Context) (form.Draft, error) {
	if err := c.Request.ParseMultipartForm(api.maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return form.Draft{}, err
	}
	file, err := api.readImageFile(c)
	if err != nil {
		return form.Draft{}, err
	}
	return form.DraftFromValues(c.Request.PostForm, file), nil
}

func (api *RestaurantAPI) readImageFile(c *gin.Context) (*domain.ImageFile, error) {
	header, err := c.FormFile("imageFile")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if header.Size > api.maxUploadBytes {
		return nil, errImageTooLarge
	}
	return readUpload(header)
}

func readUpload(header *multipart.FileHeader) (*domain.ImageFile, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return &domain.ImageFile{Filename: header.Filename, ContentType: contentType, Data: data}, nil
}

func submissionMode(raw string) restaurantports.SubmissionMode {
	if restaurantports.SubmissionMode(raw) == restaurantports.SubmissionUpdate {
		return restaurantports.SubmissionUpdate
	}
	return restaurantports.SubmissionCreate
}

func sessionToken(c *gin.Context) string {
	session, ok := identityports.SessionFrom(c.Request.Context())
	if !ok {
		return ""
	}
	return session.Token
}

// inflightSet counts saves in progress per session.
type inflightSet struct {
	mu     sync.Mutex
	counts map[string]int
}

func newInflightSet() *inflightSet {
	return &inflightSet{counts: map[string]int{}}
}

func (s *inflightSet) begin(key string) func() {
	s.mu.Lock()
	s.counts[key]++
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.counts[key]--; s.counts[key] <= 0 {
			delete(s.counts, key)
		}
	}
}

func (s *inflightSet) active(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[key] > 0
}
