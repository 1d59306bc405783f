package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yeremiapane/jobconnect-app/middlewares"
	"github.com/yeremiapane/jobconnect-app/models"
	"github.com/yeremiapane/jobconnect-app/services"
	"github.com/yeremiapane/jobconnect-app/utils"
)

type AuthController struct {
	DB *gorm.DB
}

func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{DB: db}
}

// RegisterCandidate -> akun pencari kerja baru
func (ac *AuthController) RegisterCandidate(c *gin.Context) {
	type request struct {
		FullName string `json:"full_name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
		Headline string `json:"headline"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	candidate := models.Candidate{
		FullName: req.FullName,
		Email:    req.Email,
		Password: string(hashed),
		Headline: req.Headline,
	}

	if err := ac.DB.Create(&candidate).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("New candidate registered: %s", candidate.Email)
	services.GetMailerService().SendAsync(candidate.Email, "Welcome to JobConnect",
		"Hi "+candidate.FullName+", your candidate account is ready.")

	utils.RespondJSON(c, http.StatusCreated, "Candidate registered", gin.H{
		"candidate_id": candidate.ID,
	})
}

// RegisterEmployer -> akun perusahaan baru
func (ac *AuthController) RegisterEmployer(c *gin.Context) {
	type request struct {
		CompanyName string `json:"company_name" binding:"required"`
		Email       string `json:"email" binding:"required,email"`
		Password    string `json:"password" binding:"required,min=8"`
		Website     string `json:"website"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	employer := models.Employer{
		CompanyName: req.CompanyName,
		Email:       req.Email,
		Password:    string(hashed),
		Website:     req.Website,
	}

	if err := ac.DB.Create(&employer).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("New employer registered: %s", employer.Email)
	services.GetMailerService().SendAsync(employer.Email, "Welcome to JobConnect",
		"Hi "+employer.CompanyName+", your employer account is ready.")

	utils.RespondJSON(c, http.StatusCreated, "Employer registered", gin.H{
		"employer_id": employer.ID,
	})
}

// Login -> return JWT. Type menentukan tabel identitas mana yang dicek.
func (ac *AuthController) Login(c *gin.Context) {
	var input struct {
		Type     models.ActorType `json:"type" binding:"required"`
		Email    string           `json:"email" binding:"required"`
		Password string           `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var (
		id     uint
		hashed string
	)
	switch input.Type {
	case models.ActorCandidate:
		var candidate models.Candidate
		if err := ac.DB.Where("email = ?", input.Email).First(&candidate).Error; err != nil {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
			return
		}
		id, hashed = candidate.ID, candidate.Password
	case models.ActorEmployer:
		var employer models.Employer
		if err := ac.DB.Where("email = ?", input.Email).First(&employer).Error; err != nil {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
			return
		}
		id, hashed = employer.ID, employer.Password
	default:
		utils.RespondError(c, http.StatusBadRequest, errors.New("type must be candidate or employer"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(input.Password)); err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}

	token, err := utils.GenerateToken(input.Type, id)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Login successful for %s:%d", input.Type, id)

	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token": token,
		"type":  input.Type,
		"id":    id,
	})
}

// Logout -> blacklist token yang sedang dipakai
func (ac *AuthController) Logout(c *gin.Context) {
	token := c.GetString("token")
	if token != "" {
		utils.BlacklistToken(token)
	}
	utils.RespondJSON(c, http.StatusOK, "Logged out", nil)
}

// GetProfile mengembalikan profil principal yang sedang login
func (ac *AuthController) GetProfile(c *gin.Context) {
	p, ok := middlewares.PrincipalFrom(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}

	switch p.Type {
	case models.ActorCandidate:
		var candidate models.Candidate
		if err := ac.DB.First(&candidate, p.ID).Error; err != nil {
			utils.RespondError(c, http.StatusNotFound, errors.New("profile not found"))
			return
		}
		utils.RespondJSON(c, http.StatusOK, "Profile", candidate)
	case models.ActorEmployer:
		var employer models.Employer
		if err := ac.DB.First(&employer, p.ID).Error; err != nil {
			utils.RespondError(c, http.StatusNotFound, errors.New("profile not found"))
			return
		}
		utils.RespondJSON(c, http.StatusOK, "Profile", employer)
	}
}

// DeleteAccount menghapus akun principal beserta conversations, messages,
// dan notifications miliknya dalam satu transaksi
func (ac *AuthController) DeleteAccount(c *gin.Context) {
	p, ok := middlewares.PrincipalFrom(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}

	column := "candidate_id"
	if p.Type == models.ActorEmployer {
		column = "employer_id"
	}

	err := ac.DB.Transaction(func(tx *gorm.DB) error {
		var convIDs []uint
		if err := tx.Model(&models.Conversation{}).
			Where(column+" = ?", p.ID).Pluck("id", &convIDs).Error; err != nil {
			return err
		}
		if len(convIDs) > 0 {
			if err := tx.Where("conversation_id IN ?", convIDs).Delete(&models.Message{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&models.Conversation{}, convIDs).Error; err != nil {
				return err
			}
		}
		if err := tx.Where(column+" = ?", p.ID).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		switch p.Type {
		case models.ActorCandidate:
			return tx.Delete(&models.Candidate{}, p.ID).Error
		default:
			return tx.Delete(&models.Employer{}, p.ID).Error
		}
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	if token := c.GetString("token"); token != "" {
		utils.BlacklistToken(token)
	}
	utils.RespondJSON(c, http.StatusOK, "Account deleted", nil)
}
