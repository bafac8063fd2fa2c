package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"coursemarket/backend/models"
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
)

const defaultTimeout = 10 * time.Second

// ClerkClient talks to the identity provider's backend API with the server
// secret key. One instance is built at startup and shared.
type ClerkClient struct {
	baseURL   string
	secretKey string
	log       *utils.Logger
}

type clerkUser struct {
	ID             string              `json:"id"`
	FirstName      string              `json:"first_name"`
	LastName       string              `json:"last_name"`
	PublicMetadata models.UserMetadata `json:"public_metadata"`
}

type clerkError struct {
	Errors []struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"errors"`
}

func NewClerkClient(baseURL, secretKey string, log *utils.Logger) (*ClerkClient, error) {
	if strings.TrimSpace(secretKey) == "" {
		return nil, errors.New("CLERK_SECRET_KEY is required")
	}
	if baseURL == "" {
		baseURL = "https://api.clerk.com"
	}
	return &ClerkClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		log:       log.With("service", "ClerkClient"),
	}, nil
}

// UpdateUserMetadata replaces the user's public metadata (role and settings).
func (c *ClerkClient) UpdateUserMetadata(ctx context.Context, userID string, metadata models.UserMetadata) (*models.User, error) {
	endpoint := fmt.Sprintf("%s/v1/users/%s/metadata", c.baseURL, url.PathEscape(userID))

	agent := fiber.Patch(endpoint).
		Set(fiber.HeaderAuthorization, "Bearer "+c.secretKey).
		JSON(fiber.Map{"public_metadata": metadata}).
		Timeout(timeoutFrom(ctx))

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("identity provider request failed: %w", errors.Join(errs...))
	}
	if code >= fiber.StatusBadRequest {
		return nil, fmt.Errorf("identity provider returned %d: %s", code, errorMessage(body))
	}

	var user clerkUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("decode identity provider user: %w", err)
	}
	c.log.Debug("user metadata updated", "user_id", user.ID, "user_type", user.PublicMetadata.UserType)

	return &models.User{
		ID:             user.ID,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		PublicMetadata: user.PublicMetadata,
	}, nil
}

func timeoutFrom(ctx context.Context) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 {
			return remaining
		}
	}
	return defaultTimeout
}

func errorMessage(body []byte) string {
	var ce clerkError
	if err := json.Unmarshal(body, &ce); err == nil && len(ce.Errors) > 0 {
		return ce.Errors[0].Message
	}
	if len(body) > 200 {
		return string(body[:200])
	}
	return string(body)
}
