package handlers

import (
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/publora/publora/configs"
	"github.com/publora/publora/internal/models"
	"github.com/publora/publora/internal/service"
	"github.com/publora/publora/pkg/utils"
)

type PlatformHandler struct {
	s   service.AccountService
	cfg *config.Config
}

func NewPlatformHandler(service service.AccountService, cfg *config.Config) *PlatformHandler {
	return &PlatformHandler{s: service, cfg: cfg}
}

// AddSocialAccount redirects the browser to the vendor's consent screen.
// A signed state token carries the user id through the OAuth round trip.
func (h *PlatformHandler) AddSocialAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)
	p := models.Platform(c.Params("platform"))
	method := c.Query("method")

	authURL, err := h.s.GetAuthURL(c.Context(), p, method)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	state, err := utils.GenerateToken(h.cfg.SecretKey, fmt.Sprintf("%d", userID), 15*time.Minute)
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}

	parsed, err := url.Parse(authURL)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}
	q := parsed.Query()
	q.Set("state", state)
	parsed.RawQuery = q.Encode()

	return c.Redirect(parsed.String())
}

func (h *PlatformHandler) CallbackHandler(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	p := models.Platform(c.Params("platform"))
	method := c.Query("method")

	claims, err := utils.ValidateToken(h.cfg.SecretKey, state)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to validate user",
		})
	}

	userID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to validate user",
		})
	}

	_, err = h.s.ConnectCallback(c.Context(), userID, p, method, code)
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}

	redirectURL := fmt.Sprintf("%s/dashboard/accounts", h.cfg.FrontendURL)
	return c.Redirect(redirectURL, fiber.StatusTemporaryRedirect)
}

func (h *PlatformHandler) ListSocialAccounts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	accountList, err := h.s.List(c.Context(), userID)
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch social accounts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(accountList)
}

func (h *PlatformHandler) ListPages(c *fiber.Ctx) error {
	userID := GetUserID(c)

	pages, err := h.s.ListPages(c.Context(), userID)
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch pages",
		})
	}

	return c.Status(fiber.StatusOK).JSON(pages)
}

func (h *PlatformHandler) SyncPages(c *fiber.Ctx) error {
	userID := GetUserID(c)
	accountID := c.Query("account_id")

	pages, err := h.s.SyncPages(c.Context(), userID, accountID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to sync pages",
		})
	}

	return c.Status(fiber.StatusOK).JSON(pages)
}

func (h *PlatformHandler) PageStatus(c *fiber.Ctx) error {
	userID := GetUserID(c)
	pageID := c.Query("page_id")

	page, err := h.s.CheckPageStatus(c.Context(), userID, pageID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to check page status",
		})
	}

	return c.Status(fiber.StatusOK).JSON(page)
}

func (h *PlatformHandler) PagePostHistory(c *fiber.Ctx) error {
	userID := GetUserID(c)
	pageID := c.Query("page_id")
	limit := c.QueryInt("limit", 10)
	cursor := c.Query("cursor")

	history, next, err := h.s.PagePostHistory(c.Context(), userID, pageID, limit, cursor)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"posts":       history,
		"next_cursor": next,
	})
}

func (h *PlatformHandler) PagePostAnalytics(c *fiber.Ctx) error {
	userID := GetUserID(c)
	pageID := c.Query("page_id")
	postID := c.Query("post_id")

	analytics, err := h.s.PagePostAnalytics(c.Context(), userID, pageID, postID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(analytics)
}

func (h *PlatformHandler) DeleteSocialAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)
	accountID := c.Query("id")

	err := h.s.Disconnect(c.Context(), userID, accountID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to delete social account",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
