package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo pairs an error code with a user facing message
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError maps database and infrastructure errors to a code and message
// safe to return to clients. context names the resource being acted on.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "Something went wrong",
		}
	}

	errStr := err.Error()
	errStrLower := strings.ToLower(errStr)

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: notFoundMessage(context),
		}
	}

	// PostgreSQL constraint violations

	if strings.Contains(errStrLower, "duplicate key") || strings.Contains(errStrLower, "unique constraint") {
		return parseDuplicateKeyError(errStrLower)
	}

	if strings.Contains(errStrLower, "foreign key constraint") {
		return ErrorInfo{
			Code:    ValidationInvalidID,
			Message: "Referenced record does not exist",
		}
	}

	if strings.Contains(errStrLower, "null value") && strings.Contains(errStrLower, "violates not-null constraint") {
		return ErrorInfo{
			Code:    ValidationRequired,
			Message: "A required field is missing",
		}
	}

	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "An external service is unavailable. Please try again later",
		}
	}

	return ErrorInfo{
		Code:    InternalServerError,
		Message: "Something went wrong. Please try again later",
	}
}

// ParseAndRespond parses err and writes the standard error body. The narrow
// interface keeps this file free of a gin dependency.
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	info := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   info.Code,
		Message: info.Message,
	})
}

func parseDuplicateKeyError(errLower string) ErrorInfo {
	if strings.Contains(errLower, "email") || strings.Contains(errLower, "idx_users_email") {
		return ErrorInfo{
			Code:    AuthEmailAlreadyExists,
			Message: "This email is already in use",
		}
	}
	if strings.Contains(errLower, "username") || strings.Contains(errLower, "idx_users_username") {
		return ErrorInfo{
			Code:    AuthUsernameExists,
			Message: "This username is already taken",
		}
	}
	if strings.Contains(errLower, "idx_cart_listing_slot") {
		return ErrorInfo{
			Code:    ResourceConflict,
			Message: "This listing is already in the cart",
		}
	}
	if strings.Contains(errLower, "idx_wishlist_listing_slot") {
		return ErrorInfo{
			Code:    WishlistDuplicate,
			Message: "This listing is already in the wishlist",
		}
	}
	if strings.Contains(errLower, "idx_product_language") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: "A translation for this language already exists",
		}
	}
	if strings.Contains(errLower, "reference_id") {
		return ErrorInfo{
			Code:    PaymentAlreadyProcessed,
			Message: "This payment reference was already used",
		}
	}
	return ErrorInfo{
		Code:    ResourceAlreadyExists,
		Message: "This record already exists",
	}
}

func notFoundMessage(context string) string {
	switch context {
	case "user":
		return "User not found"
	case "product":
		return "Product not found"
	case "listing":
		return "Listing not found"
	case "cart":
		return "Cart not found"
	case "wishlist":
		return "Wishlist not found"
	case "order":
		return "Order not found"
	case "payment":
		return "Payment not found"
	default:
		return "Resource not found"
	}
}
