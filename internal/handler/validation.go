package handler

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/hpn/hpn-blueprint/internal/domain"
)

var registerOnce sync.Once

// RegisterValidators adds the "provider" tag to gin's validator.
// It is idempotent.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("provider", func(fl validator.FieldLevel) bool {
			return domain.ParseProviderType(fl.Field().String()).IsValid()
		})
	})
}

// bindError answers a failed ShouldBindJSON.
func bindError(c *gin.Context, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
		return
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			switch fe.Tag() {
			case "provider":
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unsupported provider: %v", fe.Value())})
				return
			case "required":
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s is required", fe.Field())})
				return
			}
		}
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
}
