package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/issuedesk/internal/common"
	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type otpRequest struct {
	Email    string `json:"email"`
	OTP      string `json:"otp"`
	Password string `json:"password"`
}

func (s *HTTPServer) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Please provide all fields"})
		return
	}

	res, err := s.users.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorMissingField):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Please provide all fields"})
		case errors.Is(err, common.ErrorAlreadyExists):
			c.JSON(http.StatusBadRequest, gin.H{"message": "User already exists"})
		case errors.Is(err, common.ErrorInvalidPassword):
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		default:
			s.serverError(c, "message", err)
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"_id":   res.User.ID,
		"name":  res.User.Name,
		"email": res.User.Email,
		"role":  res.User.Role,
		"token": res.Token,
	})
}

func (s *HTTPServer) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
		return
	}

	res, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorUnauthorized):
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
		default:
			s.serverError(c, "message", err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": userResponse{
			ID:    res.User.ID,
			Name:  res.User.Name,
			Email: res.User.Email,
			Role:  res.User.Role,
		},
		"token": res.Token,
	})
}

func (s *HTTPServer) forgotPassword(c *gin.Context) {
	var req otpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
		return
	}

	err := s.users.ForgotPassword(c.Request.Context(), req.Email)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "OTP sent to your email."})
	case errors.Is(err, common.ErrorMissingField):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
	case errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "No user with that email address."})
	default:
		s.serverError(c, "error", err)
	}
}

func (s *HTTPServer) verifyOTP(c *gin.Context) {
	var req otpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired OTP."})
		return
	}

	err := s.users.VerifyOTP(c.Request.Context(), req.Email, req.OTP)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "OTP verified. You may now reset your password."})
	case errors.Is(err, common.ErrorInvalidOTP):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired OTP."})
	default:
		s.serverError(c, "error", err)
	}
}

func (s *HTTPServer) resetPassword(c *gin.Context) {
	var req otpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired OTP."})
		return
	}

	err := s.users.ResetPassword(c.Request.Context(), req.Email, req.OTP, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Password has been reset. You can now log in."})
	case errors.Is(err, common.ErrorInvalidOTP):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired OTP."})
	case errors.Is(err, common.ErrorMissingField):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password is required"})
	case errors.Is(err, common.ErrorInvalidPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.serverError(c, "error", err)
	}
}

func (s *HTTPServer) me(c *gin.Context) {
	p := principal(c)
	id, _ := p.UserID()
	c.JSON(http.StatusOK, gin.H{
		"id":     id,
		"name":   p.Name(),
		"email":  p.Email(),
		"role":   p.Role(),
		"bypass": p.IsBypass(),
	})
}
