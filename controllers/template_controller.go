// controllers/template_controller.go
package controllers

import (
	"errors"
	"net/http"

	"guesthouse-backend/models"
	"guesthouse-backend/services"
	"guesthouse-backend/utils"

	"github.com/gin-gonic/gin"
)

type TemplateController struct {
	Templates *services.TemplateService
}

func NewTemplateController(svc *services.TemplateService) *TemplateController {
	return &TemplateController{Templates: svc}
}

// ---------------------------
// Payload / DTOs
// ---------------------------

type PreviewPayload struct {
	Variables map[string]string `json:"variables"`
}

// GetTemplates lists all message templates. GET /api/templates
func (ctl *TemplateController) GetTemplates(c *gin.Context) {
	templates, err := ctl.Templates.GetAllTemplates()
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSONSuccess(c, http.StatusOK, templates)
}

// CreateTemplate. POST /api/templates
func (ctl *TemplateController) CreateTemplate(c *gin.Context) {
	var tpl models.MessageTemplate
	if err := c.ShouldBindJSON(&tpl); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	if tpl.Key == "" || tpl.Content == "" {
		utils.JSONError(c, http.StatusBadRequest, "key and content are required")
		return
	}
	if err := ctl.Templates.CreateTemplate(&tpl); err != nil {
		if isDuplicateEntryError(err) {
			utils.JSONError(c, http.StatusConflict, "Template key already exists")
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, tpl)
}

// UpdateTemplate. PATCH /api/templates/:id
func (ctl *TemplateController) UpdateTemplate(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	updates = utils.SnakeCaseKeys(updates)
	for _, key := range []string{"id", "created_at", "updated_at", "deleted_at"} {
		delete(updates, key)
	}
	tpl, err := ctl.Templates.UpdateTemplate(id, updates)
	if err != nil {
		if errors.Is(err, models.ErrTemplateNotFound) {
			utils.JSONError(c, http.StatusNotFound, err.Error())
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSONSuccess(c, http.StatusOK, tpl)
}

// DeleteTemplate. DELETE /api/templates/:id
func (ctl *TemplateController) DeleteTemplate(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := ctl.Templates.DeleteTemplate(id); err != nil {
		if errors.Is(err, models.ErrTemplateNotFound) {
			utils.JSONError(c, http.StatusNotFound, err.Error())
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"deleted": id})
}

// PreviewTemplate renders a template with caller-supplied variables, using
// the same strict rules a dispatch run applies.
// POST /api/templates/preview/:key
func (ctl *TemplateController) PreviewTemplate(c *gin.Context) {
	key := c.Param("key")
	var payload PreviewPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	tpl, err := ctl.Templates.GetTemplateByKey(key)
	if err != nil {
		if errors.Is(err, models.ErrTemplateNotFound) {
			utils.JSONError(c, http.StatusNotFound, err.Error())
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, err.Error())
		return
	}

	rendered, err := services.RenderStrict(tpl.Content, payload.Variables)
	if err != nil {
		utils.JSONError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"rendered": rendered})
}
