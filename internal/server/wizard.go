package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/quickinvoice/internal/config"
	"github.com/smallbiznis/quickinvoice/internal/invoice/render"
	"github.com/smallbiznis/quickinvoice/internal/ledger"
	obscontext "github.com/smallbiznis/quickinvoice/internal/observability/context"
	"github.com/smallbiznis/quickinvoice/internal/observability/logger"
	"github.com/smallbiznis/quickinvoice/internal/wizard"
	"github.com/smallbiznis/quickinvoice/internal/wizard/domain"
	"go.uber.org/zap"
)

// jumpRequest targets a step by index or by name. Index wins when both are
// set.
type jumpRequest struct {
	Index *int   `json:"index"`
	Step  string `json:"step"`
}

type transitionResponse struct {
	Moved bool         `json:"moved"`
	State wizard.State `json:"state"`
}

func (s *Server) CreateWizard(c *gin.Context) {
	_, state := s.store.Create(c.Request.Context())
	c.JSON(http.StatusCreated, gin.H{"data": state})
}

func (s *Server) GetWizard(c *gin.Context) {
	id, ok := s.sessionID(c)
	if !ok {
		return
	}

	state, err := s.store.State(id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": state})
}

func (s *Server) DeleteWizard(c *gin.Context) {
	id, ok := s.sessionID(c)
	if !ok {
		return
	}

	if !s.store.Delete(id) {
		AbortWithError(c, domain.ErrSessionNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) UpdateBusiness(c *gin.Context) {
	var req domain.BusinessPatch
	if !bindPatch(c, &req) {
		return
	}
	s.mutate(c, http.StatusOK, func(ctl *wizard.Controller) error {
		ctl.UpdateBusiness(req)
		return nil
	})
}

func (s *Server) UpdateCustomer(c *gin.Context) {
	var req domain.CustomerPatch
	if !bindPatch(c, &req) {
		return
	}
	s.mutate(c, http.StatusOK, func(ctl *wizard.Controller) error {
		ctl.UpdateCustomer(req)
		return nil
	})
}

func (s *Server) UpdateMeta(c *gin.Context) {
	var req domain.MetaPatch
	if !bindPatch(c, &req) {
		return
	}
	s.mutate(c, http.StatusOK, func(ctl *wizard.Controller) error {
		_, err := ctl.UpdateMeta(req)
		return err
	})
}

func (s *Server) AddItem(c *gin.Context) {
	s.mutate(c, http.StatusCreated, func(ctl *wizard.Controller) error {
		ctl.AddItem()
		return nil
	})
}

func (s *Server) UpdateItem(c *gin.Context) {
	itemID := strings.TrimSpace(c.Param("itemId"))
	var req ledger.Patch
	if !bindPatch(c, &req) {
		return
	}
	s.mutate(c, http.StatusOK, func(ctl *wizard.Controller) error {
		if _, ok := ctl.UpdateItem(itemID, req); !ok {
			return domain.ErrItemNotFound
		}
		return nil
	})
}

// RemoveItem never fails for a known wizard: removing the last item or an
// unknown id leaves the ledger untouched.
func (s *Server) RemoveItem(c *gin.Context) {
	itemID := strings.TrimSpace(c.Param("itemId"))
	s.mutate(c, http.StatusOK, func(ctl *wizard.Controller) error {
		ctl.RemoveItem(itemID)
		return nil
	})
}

func (s *Server) Advance(c *gin.Context) {
	s.transition(c, "advance", func(ctl *wizard.Controller) bool {
		return ctl.Advance()
	})
}

func (s *Server) Retreat(c *gin.Context) {
	s.transition(c, "retreat", func(ctl *wizard.Controller) bool {
		return ctl.Retreat()
	})
}

func (s *Server) JumpTo(c *gin.Context) {
	var req jumpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("index", "required", "index or step is required"))
		return
	}
	var index int
	switch {
	case req.Index != nil:
		index = *req.Index
	case strings.TrimSpace(req.Step) != "":
		step, ok := domain.ParseStep(req.Step)
		if !ok {
			AbortWithError(c, newValidationError("step", "invalid_step", "unknown step"))
			return
		}
		index = step.Index()
	default:
		AbortWithError(c, newValidationError("index", "required", "index or step is required"))
		return
	}
	s.transition(c, "jump", func(ctl *wizard.Controller) bool {
		before := ctl.Step()
		return ctl.JumpTo(index) != before
	})
}

func (s *Server) Preview(c *gin.Context) {
	id, ok := s.sessionID(c)
	if !ok {
		return
	}

	snapshot, err := s.store.Snapshot(id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	html, err := s.renderer.RenderHTML(render.RenderInput{
		Snapshot:    snapshot,
		Accent:      s.invoiceDefaults().AccentColor,
		GeneratedAt: s.clock.Now(),
	})
	if err != nil {
		AbortWithError(c, &domain.RenderError{Err: err})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func (s *Server) Generate(c *gin.Context) {
	id, ok := s.sessionID(c)
	if !ok {
		return
	}

	format, err := domain.ParseFormat(c.Query("format"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	release, acquired, err := s.limiter.AcquireRender(ctx, id)
	if err != nil {
		logger.FromContext(ctx).Warn("render lock failed", zap.Error(err))
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	if !acquired {
		AbortWithError(c, ErrGenerateInProgress)
		return
	}
	defer release()

	doc, err := s.store.Generate(ctx, id, format)
	if err != nil {
		if errors.Is(err, domain.ErrGenerateBlocked) {
			logger.FromContext(ctx).Debug("generate blocked")
		}
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}

// sessionID reads and validates the :id parameter and tags the request
// context with it.
func (s *Server) sessionID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if _, err := snowflake.ParseString(id); err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return "", false
	}
	c.Request = c.Request.WithContext(obscontext.WithSessionID(c.Request.Context(), id))
	return id, true
}

// mutate applies fn under the session lock and responds with the new state.
func (s *Server) mutate(c *gin.Context, status int, fn func(*wizard.Controller) error) {
	id, ok := s.sessionID(c)
	if !ok {
		return
	}

	var state wizard.State
	err := s.store.With(id, func(ctl *wizard.Controller) error {
		if err := fn(ctl); err != nil {
			return err
		}
		state = ctl.State()
		return nil
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	state.ID = id
	c.JSON(status, gin.H{"data": state})
}

func (s *Server) transition(c *gin.Context, intent string, fn func(*wizard.Controller) bool) {
	id, ok := s.sessionID(c)
	if !ok {
		return
	}

	var (
		moved bool
		state wizard.State
	)
	err := s.store.With(id, func(ctl *wizard.Controller) error {
		moved = fn(ctl)
		state = ctl.State()
		return nil
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	state.ID = id

	ctx := c.Request.Context()
	s.metrics.RecordTransition(ctx, intent, state.Step, moved)
	if !moved {
		logger.FromContext(ctx).Debug("wizard transition blocked",
			zap.String("intent", intent),
			zap.String("step", state.Step),
		)
	}
	c.JSON(http.StatusOK, gin.H{"data": transitionResponse{Moved: moved, State: state}})
}

func (s *Server) invoiceDefaults() config.InvoiceDefaults {
	if s.defaults == nil {
		return config.DefaultInvoiceDefaults()
	}
	return s.defaults.Get()
}

// bindPatch decodes a JSON patch body. Domain decode failures such as an
// unknown currency surface as validation errors of their own.
func bindPatch(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, domain.ErrUnsupportedCurrency) || errors.Is(err, domain.ErrInvalidDate) {
			AbortWithError(c, err)
			return false
		}
		AbortWithError(c, invalidRequestError())
		return false
	}
	return true
}
