package handlers

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"

	"github.com/skitch/coworkstreambot/internal/models"
	"github.com/skitch/coworkstreambot/internal/session"
)

// Handler serves the pages and the authenticated dashboard API. Auth
// is the channel→password registry; the cookie session records which
// channel a dashboard login controls.
type Handler struct {
	Registry  *session.Registry
	Auth      map[string]string
	Cookies   *fibersession.Store
	PublicURL string

	// Reply forwards dashboard command confirmations into the
	// channel's chat, mirroring chat-issued commands. Nil without a
	// connected bot.
	Reply func(channel, message string)
}

func NewHandler(registry *session.Registry, auth map[string]string, cookies *fibersession.Store, publicURL string) *Handler {
	return &Handler{
		Registry:  registry,
		Auth:      auth,
		Cookies:   cookies,
		PublicURL: publicURL,
	}
}

func (h *Handler) LandingPage(c *fiber.Ctx) error {
	return c.Render("index", nil)
}

func (h *Handler) OverlayPage(c *fiber.Ctx) error {
	return c.Render("overlay", nil)
}

func (h *Handler) DashboardPage(c *fiber.Ctx) error {
	return c.Render("dashboard", nil)
}

type loginRequest struct {
	Channel  string `json:"channel"`
	Password string `json:"password"`
}

// Login checks the channel/password pair against the auth registry and
// stores the channel in the cookie session.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Bad request"})
	}

	target := strings.ToLower(req.Channel)
	if pass, ok := h.Auth[target]; !ok || pass != req.Password {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Invalid Channel or Password"})
	}

	sess, err := h.Cookies.Get(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false})
	}
	sess.Set("channel", target)
	if err := sess.Save(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false})
	}

	var publicURL any
	if h.PublicURL != "" {
		publicURL = h.PublicURL
	}
	return c.JSON(fiber.Map{"success": true, "publicUrl": publicURL})
}

// authedChannel resolves the logged-in channel from the cookie
// session, "" when unauthenticated.
func (h *Handler) authedChannel(c *fiber.Ctx) string {
	sess, err := h.Cookies.Get(c)
	if err != nil {
		return ""
	}
	channel, _ := sess.Get("channel").(string)
	return channel
}

type commandRequest struct {
	Action  string `json:"action"`
	Payload struct {
		Minutes  float64 `json:"minutes"`
		Mode     string  `json:"mode"`
		Theme    string  `json:"theme"`
		Layout   string  `json:"layout"`
		Goal     int     `json:"goal"`
		Username string  `json:"username"`
		TaskID   int     `json:"taskId"`
		Text     string  `json:"text"`
	} `json:"payload"`
}

// Command dispatches one dashboard action to exactly one session
// operation. Moderator rights are implied by the dashboard login.
func (h *Handler) Command(c *fiber.Ctx) error {
	channel := h.authedChannel(c)
	if channel == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	sess := h.Registry.Get(channel)
	if sess == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Unknown channel"})
	}

	var req commandRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Bad request"})
	}

	var reply string
	switch req.Action {
	case "start-timer":
		minutes := req.Payload.Minutes
		mode := req.Payload.Mode
		if mode != models.ModeWork && mode != models.ModeBreak {
			mode = models.ModeWork
		}
		if minutes <= 0 {
			if mode == models.ModeBreak {
				minutes = 5
			} else {
				minutes = 25
			}
		}
		reply = sess.StartTimer(minutes, mode)
	case "pause":
		reply = sess.Pause()
	case "resume":
		reply = sess.Resume()
	case "set-theme":
		reply = sess.SetTheme(req.Payload.Theme)
	case "set-layout":
		reply = sess.SetLayout(req.Payload.Layout)
	case "set-goal":
		reply = sess.SetGoal(req.Payload.Goal)
	case "clear-tasks":
		reply = sess.ClearTasks()
	case "block-user":
		reply = sess.BlockUser(req.Payload.Username)
	case "unblock-user":
		reply = sess.UnblockUser(req.Payload.Username)
	case "add-task":
		user := req.Payload.Username
		if user == "" {
			user = channel
		}
		sess.AddTask(user, req.Payload.Text)
	case "mark-done":
		reply = sess.MarkDone(req.Payload.Username, req.Payload.TaskID)
	case "edit-task":
		reply = sess.EditTask(req.Payload.Username, req.Payload.TaskID, req.Payload.Text)
	}

	if reply != "" {
		if h.Reply != nil {
			h.Reply(channel, reply)
		} else {
			log.Printf("[REPLY] #%s: %s", channel, reply)
		}
	}
	return c.JSON(fiber.Map{"success": true})
}
