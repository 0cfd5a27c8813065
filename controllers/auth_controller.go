package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studyloop/chat_backend/models"
	"github.com/studyloop/chat_backend/services"
	"github.com/studyloop/chat_backend/utils"
	"gorm.io/gorm"
)

type AuthController struct {
	db           *gorm.DB
	verification *services.VerificationService
}

func NewAuthController(db *gorm.DB, verification *services.VerificationService) *AuthController {
	return &AuthController{db: db, verification: verification}
}

type RegisterInput struct {
	Username string `json:"username" binding:"required"`
	Tag      string `json:"tag" binding:"required,len=4"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ForgotPasswordInput struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordInput struct {
	Email    string `json:"email" binding:"required,email"`
	Code     string `json:"code" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

// Register handles user registration. Uniqueness of email and of
// (username, tag) is the database's job: a single insert, with the
// constraint violation mapped to 409.
func (ac *AuthController) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := models.User{
		Username: input.Username,
		Tag:      input.Tag,
		Email:    input.Email,
	}
	if err := user.SetPassword(input.Password); err != nil {
		respondError(c, err)
		return
	}

	if err := ac.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "A user with this email or username already exists"})
			return
		}
		respondError(c, err)
		return
	}

	token, err := utils.GenerateToken(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"tag":      user.Tag,
			"email":    user.Email,
		},
		"token": token,
	})
}

// Login handles user authentication
func (ac *AuthController) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := ac.db.Where("email = ?", input.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if err := user.ValidatePassword(input.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := utils.GenerateToken(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		},
		"token": token,
	})
}

// ForgotPassword issues a short-lived single-use reset code. The
// response is the same whether or not the email exists.
func (ac *AuthController) ForgotPassword(c *gin.Context) {
	var input ForgotPasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := ac.db.Where("email = ?", input.Email).First(&user).Error; err == nil {
		if _, err := ac.verification.Issue(c.Request.Context(), input.Email); err != nil {
			respondError(c, err)
			return
		}
		// Code delivery goes through the out-of-band notification
		// dispatcher; this endpoint only issues it.
		slog.Info("password reset code issued", "user_id", user.ID)
	}

	c.JSON(http.StatusOK, gin.H{"message": "If the email exists, a reset code has been sent"})
}

// ResetPassword consumes the code and sets the new password.
func (ac *AuthController) ResetPassword(c *gin.Context) {
	var input ResetPasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := ac.verification.Consume(c.Request.Context(), input.Email, input.Code); err != nil {
		respondError(c, err)
		return
	}

	var user models.User
	if err := ac.db.Where("email = ?", input.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := user.SetPassword(input.Password); err != nil {
		respondError(c, err)
		return
	}
	if err := ac.db.Save(&user).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}
