package twitch

import (
	"log"
	"strconv"
	"strings"

	irc "github.com/gempir/go-twitch-irc/v4"

	"github.com/skitch/coworkstreambot/internal/models"
	"github.com/skitch/coworkstreambot/internal/session"
)

// Bot is the chat-side adapter: it parses !commands out of channel
// messages, invokes exactly one session operation per command, and
// delivers the reply back to chat.
type Bot struct {
	client   *irc.Client
	registry *session.Registry
	username string
}

// NewBot builds the IRC client and joins every registered channel.
func NewBot(username, accessToken string, registry *session.Registry) *Bot {
	b := &Bot{
		client:   irc.NewClient(username, "oauth:"+accessToken),
		registry: registry,
		username: username,
	}

	b.client.OnPrivateMessage(b.handleMessage)
	b.client.OnConnect(func() {
		log.Println("------------------------------------------")
		log.Printf("🚀 %s IS LIVE", username)
		log.Printf("📡 Connected to: %s", strings.Join(registry.Channels(), ", "))
		log.Println("------------------------------------------")
	})
	b.client.Join(registry.Channels()...)
	return b
}

// Connect blocks until the IRC connection closes.
func (b *Bot) Connect() error {
	return b.client.Connect()
}

func (b *Bot) Disconnect() error {
	return b.client.Disconnect()
}

// Say delivers a message to a channel's chat, logging the reply line.
func (b *Bot) Say(channel, message string) {
	log.Printf("[REPLY] #%s: %s", channel, message)
	b.client.Say(channel, message)
}

func (b *Bot) handleMessage(m irc.PrivateMessage) {
	if !strings.HasPrefix(m.Message, "!") {
		return
	}
	if strings.EqualFold(m.User.Name, b.username) {
		return
	}

	username := m.User.DisplayName
	if username == "" {
		username = m.User.Name
	}
	isMod := m.User.Badges["moderator"] > 0 || m.User.ID == m.RoomID

	log.Printf("[COMMAND] #%s | %s: %s", m.Channel, username, m.Message)

	if reply := b.dispatch(m.Channel, username, isMod, m.Message); reply != "" {
		b.Say(m.Channel, reply)
	}
}

// dispatch routes one chat command to one session operation and
// returns the user-facing confirmation, "" for silent outcomes.
func (b *Bot) dispatch(channel, username string, isMod bool, message string) string {
	sess := b.registry.Get(channel)
	if sess == nil {
		return ""
	}

	fields := strings.Fields(message)
	command := strings.ToLower(fields[0])
	args := fields[1:]

	switch command {
	case "!coworkhelp":
		help := `🤖 [VIEWER] !task <task text>, !edit <task number> <new task text>, !done <task number>`
		if isMod {
			help += ` | 🛠️ [MOD] !focus/!break <mins>, !coworktheme <color>, !coworksetgoal <num>, !coworkclearstats, !coworkclearleaderboard, !coworkblock/!coworkunblock <user>`
		}
		return help

	case "!task":
		sess.AddTask(username, strings.Join(args, " "))
		return ""

	case "!done":
		requestedID := 0
		if len(args) > 0 {
			if n, err := strconv.Atoi(args[0]); err == nil {
				requestedID = n
			}
		}
		return sess.MarkDone(username, requestedID)

	case "!edit":
		if len(args) < 2 {
			return "⛔ Usage: !edit <id> <new text>"
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return "⛔ Usage: !edit <id> <new text>"
		}
		return sess.EditTask(username, id, strings.Join(args[1:], " "))

	case "!focus", "!break":
		if !isMod {
			return ""
		}
		mode := models.ModeWork
		minutes := float64(25)
		if command == "!break" {
			mode = models.ModeBreak
			minutes = 5
		}
		if len(args) > 0 {
			if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
				minutes = float64(n)
			}
		}
		return sess.StartTimer(minutes, mode)

	case "!pause":
		if !isMod {
			return ""
		}
		return sess.Pause()

	case "!resume":
		if !isMod {
			return ""
		}
		return sess.Resume()

	case "!coworktheme":
		if !isMod || len(args) == 0 {
			return ""
		}
		return sess.SetTheme(strings.ToLower(args[0]))

	case "!coworklayout":
		if !isMod || len(args) == 0 {
			return ""
		}
		return sess.SetLayout(strings.ToLower(args[0]))

	case "!coworksetgoal":
		if !isMod || len(args) == 0 {
			return ""
		}
		goal, err := strconv.Atoi(args[0])
		if err != nil {
			return ""
		}
		return sess.SetGoal(goal)

	case "!coworkcleartasks", "!cleartasks":
		if !isMod {
			return ""
		}
		return sess.ClearTasks()

	case "!coworkclearstats":
		if !isMod {
			return ""
		}
		return sess.ClearStats()

	case "!coworkclearleaderboard":
		if !isMod {
			return ""
		}
		return sess.ClearLeaderboard()

	case "!coworkblock":
		if !isMod || len(args) == 0 {
			return ""
		}
		return sess.BlockUser(args[0])

	case "!coworkunblock":
		if !isMod || len(args) == 0 {
			return ""
		}
		return sess.UnblockUser(args[0])
	}
	return ""
}
