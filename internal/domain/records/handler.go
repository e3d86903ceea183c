package records

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicvoice/clinicvoice/internal/platform/httperr"
	"github.com/clinicvoice/clinicvoice/internal/platform/validation"
	"github.com/clinicvoice/clinicvoice/pkg/pagination"
)

const (
	msgPatientNotFound   = "Patient not found"
	msgVoiceNoteNotFound = "Voice note not found"
	msgSummaryNotFound   = "Summary not found"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients", h.ListPatients)
	api.GET("/patients/:id", h.GetPatient)
	api.POST("/patients", h.CreatePatient)
	api.PATCH("/patients/:id", h.UpdatePatient)
	api.DELETE("/patients/:id", h.DeletePatient)

	api.GET("/voice-notes", h.ListVoiceNotes)
	api.GET("/voice-notes/:id", h.GetVoiceNote)
	api.POST("/voice-notes", h.CreateVoiceNote)
	api.PATCH("/voice-notes/:id", h.UpdateVoiceNote)
	api.DELETE("/voice-notes/:id", h.DeleteVoiceNote)

	api.GET("/summaries", h.ListSummaries)
	api.GET("/summaries/:id", h.GetSummary)
	api.POST("/summaries", h.CreateSummary)
}

type dataResponse struct {
	Data interface{} `json:"data"`
}

// patientView always renders voiceNotes, even when empty.
type patientView struct {
	*Patient
	VoiceNotes []*VoiceNote `json:"voiceNotes"`
}

// voiceNoteView always renders summaries, even when empty.
type voiceNoteView struct {
	*VoiceNote
	Summaries []*Summary `json:"summaries"`
}

// readBody returns the raw JSON body. Bodies sent with any other content
// type are not parsed and read as an empty object.
func readBody(c echo.Context) ([]byte, error) {
	ctype := strings.ToLower(c.Request().Header.Get(echo.HeaderContentType))
	if !strings.HasPrefix(ctype, echo.MIMEApplicationJSON) {
		return nil, nil
	}
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		var he *httperr.Error
		if errors.As(err, &he) {
			return nil, he
		}
		return nil, httperr.BadRequest("Unable to read request body")
	}
	return body, nil
}

// pathID parses :id. A malformed id cannot name a record, so it is reported
// the same way as a missing one.
func pathID(c echo.Context, notFound string) (uuid.UUID, error) {
	id, ok := validation.ParseUUID(c.Param("id"))
	if !ok {
		return uuid.Nil, httperr.NotFound(notFound)
	}
	return id, nil
}

// queryID parses an optional list filter. ok is false when the value is
// present but malformed; no record can match it.
func queryID(c echo.Context, name string) (id *uuid.UUID, ok bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, true
	}
	parsed, valid := validation.ParseUUID(raw)
	if !valid {
		return nil, false
	}
	return &parsed, true
}

// translate maps domain errors onto HTTP errors. Anything unrecognised is
// returned as-is and rendered as an internal error.
func translate(err error, notFound string) error {
	var verrs validation.Errors
	var ref *ReferenceError
	switch {
	case errors.Is(err, ErrNotFound):
		return httperr.NotFound(notFound)
	case errors.As(err, &ref):
		return httperr.BadRequest(ref.Error())
	case errors.As(err, &verrs):
		return httperr.Validation(verrs)
	default:
		return err
	}
}

// -- Patient Handlers --

func (h *Handler) ListPatients(c echo.Context) error {
	patients, err := h.svc.ListPatients(c.Request().Context(), pagination.FromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(patients, len(patients)))
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := pathID(c, msgPatientNotFound)
	if err != nil {
		return err
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return translate(err, msgPatientNotFound)
	}
	view := patientView{Patient: p, VoiceNotes: p.VoiceNotes}
	if view.VoiceNotes == nil {
		view.VoiceNotes = []*VoiceNote{}
	}
	return c.JSON(http.StatusOK, dataResponse{Data: view})
}

func (h *Handler) CreatePatient(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return err
	}
	in, err := ParseCreatePatient(body)
	if err != nil {
		return translate(err, msgPatientNotFound)
	}
	p, err := h.svc.CreatePatient(c.Request().Context(), in)
	if err != nil {
		return translate(err, msgPatientNotFound)
	}
	return c.JSON(http.StatusCreated, dataResponse{Data: p})
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := pathID(c, msgPatientNotFound)
	if err != nil {
		return err
	}
	body, err := readBody(c)
	if err != nil {
		return err
	}
	in, err := ParseUpdatePatient(body)
	if err != nil {
		return translate(err, msgPatientNotFound)
	}
	p, err := h.svc.UpdatePatient(c.Request().Context(), id, in)
	if err != nil {
		return translate(err, msgPatientNotFound)
	}
	return c.JSON(http.StatusOK, dataResponse{Data: p})
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := pathID(c, msgPatientNotFound)
	if err != nil {
		return err
	}
	if err := h.svc.DeletePatient(c.Request().Context(), id); err != nil {
		return translate(err, msgPatientNotFound)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- VoiceNote Handlers --

func (h *Handler) ListVoiceNotes(c echo.Context) error {
	patientID, ok := queryID(c, "patientId")
	if !ok {
		return c.JSON(http.StatusOK, pagination.NewResponse([]*VoiceNote{}, 0))
	}
	notes, err := h.svc.ListVoiceNotes(c.Request().Context(), VoiceNoteFilter{PatientID: patientID}, pagination.FromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(notes, len(notes)))
}

func (h *Handler) GetVoiceNote(c echo.Context) error {
	id, err := pathID(c, msgVoiceNoteNotFound)
	if err != nil {
		return err
	}
	v, err := h.svc.GetVoiceNote(c.Request().Context(), id)
	if err != nil {
		return translate(err, msgVoiceNoteNotFound)
	}
	view := voiceNoteView{VoiceNote: v, Summaries: v.Summaries}
	if view.Summaries == nil {
		view.Summaries = []*Summary{}
	}
	return c.JSON(http.StatusOK, dataResponse{Data: view})
}

func (h *Handler) CreateVoiceNote(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return err
	}
	in, err := ParseCreateVoiceNote(body)
	if err != nil {
		return translate(err, msgVoiceNoteNotFound)
	}
	v, err := h.svc.CreateVoiceNote(c.Request().Context(), in)
	if err != nil {
		return translate(err, msgVoiceNoteNotFound)
	}
	return c.JSON(http.StatusCreated, dataResponse{Data: v})
}

func (h *Handler) UpdateVoiceNote(c echo.Context) error {
	id, err := pathID(c, msgVoiceNoteNotFound)
	if err != nil {
		return err
	}
	body, err := readBody(c)
	if err != nil {
		return err
	}
	in, err := ParseUpdateVoiceNote(body)
	if err != nil {
		return translate(err, msgVoiceNoteNotFound)
	}
	v, err := h.svc.UpdateVoiceNote(c.Request().Context(), id, in)
	if err != nil {
		return translate(err, msgVoiceNoteNotFound)
	}
	return c.JSON(http.StatusOK, dataResponse{Data: v})
}

func (h *Handler) DeleteVoiceNote(c echo.Context) error {
	id, err := pathID(c, msgVoiceNoteNotFound)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteVoiceNote(c.Request().Context(), id); err != nil {
		return translate(err, msgVoiceNoteNotFound)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Summary Handlers --

func (h *Handler) ListSummaries(c echo.Context) error {
	voiceNoteID, ok := queryID(c, "voiceNoteId")
	if !ok {
		return c.JSON(http.StatusOK, pagination.NewResponse([]*Summary{}, 0))
	}
	summaries, err := h.svc.ListSummaries(c.Request().Context(), SummaryFilter{VoiceNoteID: voiceNoteID}, pagination.FromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(summaries, len(summaries)))
}

func (h *Handler) GetSummary(c echo.Context) error {
	id, err := pathID(c, msgSummaryNotFound)
	if err != nil {
		return err
	}
	s, err := h.svc.GetSummary(c.Request().Context(), id)
	if err != nil {
		return translate(err, msgSummaryNotFound)
	}
	return c.JSON(http.StatusOK, dataResponse{Data: s})
}

func (h *Handler) CreateSummary(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return err
	}
	in, err := ParseCreateSummary(body)
	if err != nil {
		return translate(err, msgSummaryNotFound)
	}
	s, err := h.svc.CreateSummary(c.Request().Context(), in)
	if err != nil {
		return translate(err, msgSummaryNotFound)
	}
	return c.JSON(http.StatusCreated, dataResponse{Data: s})
}
