package share

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sharethis/service/internal/response"
)

// Handler holds HTTP handlers for upload and download endpoints.
type Handler struct {
	uploader   *Uploader
	downloader *Downloader
	validate   *validator.Validate
	maxMemory  int64
	logger     *slog.Logger
}

// NewHandler creates a new share Handler. maxMemory bounds how much of a
// multipart body is held in memory before spilling to disk.
func NewHandler(uploader *Uploader, downloader *Downloader, maxMemory int64, logger *slog.Logger) *Handler {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{
		uploader:   uploader,
		downloader: downloader,
		validate:   v,
		maxMemory:  maxMemory,
		logger:     logger.With(slog.String("component", "http")),
	}
}

// Routes mounts the handlers on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/upload", h.Upload)
	r.Get("/download/{key}", h.Download)
}

// uploadData is the JSON document sent in the "data" form field.
type uploadData struct {
	TimeToLive       *int    `json:"time_to_live"      validate:"required,min=1,max=7" example:"1"`
	EncryptionMethod *string `json:"encryption_method" example:"AES256"`
	Email            string  `json:"email,omitempty"   validate:"omitempty,email" example:"friend@example.com"`
}

type uploadResponse struct {
	Key string `json:"key" example:"9f1c2d3e4b5a69788796a5b4c3d2e1f0"`
}

// Upload godoc
//
//	@Summary		Upload a file
//	@Description	Stores the file and returns the key that downloads it until it expires. The data field is a JSON document with time_to_live in days (1-7), encryption_method and an optional email to notify.
//	@Tags			share
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Content to share"
//	@Param			data	formData	string	true	"Upload options as JSON"
//	@Success		200		{object}	uploadResponse
//	@Failure		400		{object}	response.ErrorBody
//	@Failure		500		{object}	response.ErrorBody
//	@Router			/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxMemory); err != nil {
		response.ValidationError(w, map[string][]string{"file": {"Request is not a valid multipart form."}})
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	details := map[string]any{}

	file, header, err := r.FormFile("file")
	if err != nil {
		details["file"] = []string{"Missing data for required field."}
	} else {
		defer file.Close()
	}

	data, dataErr := h.parseData(r.FormValue("data"))
	if dataErr != nil {
		details["data"] = dataErr
	}
	if len(details) > 0 {
		response.ValidationError(w, details)
		return
	}

	key, err := h.uploader.Upload(r.Context(), UploadInput{
		Content:          file,
		FileName:         header.Filename,
		ContentType:      header.Header.Get("Content-Type"),
		TimeToLive:       time.Duration(*data.TimeToLive) * 24 * time.Hour,
		EncryptionMethod: data.EncryptionMethod,
		NotifyEmail:      data.Email,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, uploadResponse{Key: key})
}

// parseData decodes and validates the "data" form field. On failure the
// second result describes what is wrong, per field where possible.
func (h *Handler) parseData(raw string) (*uploadData, any) {
	if raw == "" {
		return nil, []string{"Missing data for required field."}
	}
	var data uploadData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, []string{"Given data is in incorrect format."}
	}

	err := h.validate.Struct(&data)
	if err == nil {
		return &data, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, []string{err.Error()}
	}
	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = append(fields[fe.Field()], fieldMessage(fe))
	}
	return nil, fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Missing data for required field."
	case "min", "max":
		return "Must be between 1 and 7 days."
	case "email":
		return "Not a valid email address."
	default:
		return "Invalid value."
	}
}

// Download godoc
//
//	@Summary		Get a download link
//	@Description	Returns a temporary link to the content stored under key. Unknown and expired keys are reported as not found.
//	@Tags			share
//	@Produce		json
//	@Param			key	path		string	true	"Upload key"
//	@Success		200	{object}	DownloadResult
//	@Failure		404	{object}	response.ErrorBody
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/download/{key} [get]
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	res, err := h.downloader.Download(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, res)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if status := response.FromError(w, err); status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}
}
