package controllers

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yeremiapane/jobconnect-app/middlewares"
	"github.com/yeremiapane/jobconnect-app/models"
	"github.com/yeremiapane/jobconnect-app/services"
	"github.com/yeremiapane/jobconnect-app/utils"
)

const maxResumeSize = 5 << 20 // 5MB

type ResumeController struct {
	DB *gorm.DB
}

func NewResumeController(db *gorm.DB) *ResumeController {
	return &ResumeController{DB: db}
}

// UploadResume menyimpan file resume candidate lalu meneruskannya ke
// parsing service eksternal; ringkasan hasil parsing disimpan di profil
func (rc *ResumeController) UploadResume(c *gin.Context) {
	p, ok := middlewares.PrincipalFrom(c)
	if !ok || p.Type != models.ActorCandidate {
		utils.RespondError(c, http.StatusForbidden, errors.New("forbidden"))
		return
	}

	file, err := c.FormFile("resume")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("resume file required"))
		return
	}
	if file.Size <= 0 || file.Size > maxResumeSize {
		utils.RespondError(c, http.StatusBadRequest, errors.New("resume size must be between 1 byte and 5MB"))
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".pdf" && ext != ".doc" && ext != ".docx" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("resume must be pdf, doc, or docx"))
		return
	}

	stored := uuid.New().String() + ext
	dst := filepath.Join("public", "uploads", "resumes", stored)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		utils.ErrorLogger.Printf("resume: saving file failed: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, errors.New("failed to store resume"))
		return
	}

	src, err := file.Open()
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	defer src.Close()
	content, err := io.ReadAll(src)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	resumeURL := "/uploads/resumes/" + stored
	updates := map[string]interface{}{"resume_url": resumeURL}

	// Parsing boleh gagal; resume tetap tersimpan dan bisa diparse ulang
	parsed, err := services.GetParserService().ParseResume(file.Filename, content)
	if err != nil {
		utils.ErrorLogger.Printf("resume: parsing for candidate %d failed: %v", p.ID, err)
	} else {
		updates["resume_summary"] = parsed.Summary
	}

	if err := rc.DB.Model(&models.Candidate{}).Where("id = ?", p.ID).Updates(updates).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	resp := gin.H{"resume_url": resumeURL}
	if parsed != nil {
		resp["summary"] = parsed.Summary
		resp["skills"] = parsed.Skills
	}
	utils.RespondJSON(c, http.StatusOK, "Resume uploaded", resp)
}
