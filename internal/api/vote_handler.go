package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jaam8/vote_tracker/internal/models"
	"github.com/jaam8/vote_tracker/internal/service"
	"github.com/jaam8/vote_tracker/internal/timeline"
	"github.com/mattermost/mattermost-server/v6/model"
	"go.uber.org/zap"
)

const (
	COMMAND     = "/vote"
	HelpMessage = "i know only this command:\n- `/vote poll`\n- `/vote cast option_index`\n- `/vote results`\n- `/vote timeline`\n- `/vote status`\n- `/vote logout`\n- `/vote help`"

	msgSomethingWrong = "something went wrong"
)

// VoteService is what the chat and REST handlers need from the service layer.
type VoteService interface {
	Poll() (*models.Poll, error)
	CastVote(optionIndex int) (models.TxStatus, error)
	Results() (service.Results, error)
	TxStatus() models.TxStatus
	Session() service.Session
	Logout()
}

type TimelineView interface {
	Current() timeline.Timeline
}

// Poster is the part of *model.Client4 the bot posts with.
type Poster interface {
	CreatePost(post *model.Post) (*model.Post, *model.Response, error)
	CreatePostEphemeral(post *model.PostEphemeral) (*model.Post, *model.Response, error)
}

type VoteHandler struct {
	s         VoteService
	tl        TimelineView
	l         *zap.Logger
	client    Poster
	channelID string
	txURL     TxURLFunc
}

func New(s VoteService, tl TimelineView, l *zap.Logger, client Poster, channelID string, txURL TxURLFunc) *VoteHandler {
	return &VoteHandler{
		s:         s,
		tl:        tl,
		l:         l,
		client:    client,
		channelID: channelID,
		txURL:     txURL,
	}
}

func HandleMessage(h *VoteHandler, event *model.WebSocketEvent, botID string) {
	raw, ok := event.GetData()["post"].(string)
	if !ok {
		h.l.Error("posted event without post data")
		return
	}
	post := &model.Post{}
	if err := json.Unmarshal([]byte(raw), post); err != nil {
		h.l.Error("error unmarshalling post", zap.Error(err))
		return
	}
	h.HandlePost(post, botID)
}

// HandlePost answers /vote commands posted in the bot's channel; posts
// elsewhere are ignored.
func (h *VoteHandler) HandlePost(post *model.Post, botID string) {
	if post.UserId == botID || post.ChannelId != h.channelID {
		return
	}
	args := strings.Fields(post.Message)
	if len(args) == 0 || args[0] != COMMAND {
		return
	}
	if len(args) < 2 {
		h.reply(post, HelpMessage)
		return
	}
	h.l.Info("new request for the bot",
		zap.String("command", args[0]),
		zap.String("subcommand", args[1]),
		zap.String("user_id", post.UserId),
		zap.String("channel_id", post.ChannelId),
		zap.String("message", post.Message))

	var err error
	switch args[1] {
	case "poll":
		err = h.ShowPoll()
	case "cast":
		err = h.CastVote(strings.Join(args[2:], " "))
	case "results":
		err = h.ShowResults()
	case "timeline":
		err = h.ShowTimeline()
	case "status":
		err = h.ShowStatus()
	case "logout":
		h.s.Logout()
		h.reply(post, "wallet disconnected")
	default:
		h.reply(post, HelpMessage)
	}
	if err != nil {
		h.reply(post, errorMessage(err))
		if userMessage(err) == "" {
			h.l.Error("failed to handle command",
				zap.String("subcommand", args[1]),
				zap.Error(err))
		}
	}
}

// userMessage is the reply for expected domain failures, empty otherwise.
func userMessage(err error) string {
	switch {
	case errors.Is(err, models.ErrPollNotLoaded):
		return "poll is not loaded yet, try again in a moment"
	case errors.Is(err, models.ErrNoSession):
		return "Please connect your wallet first"
	case errors.Is(err, models.ErrVoteAlreadyExists):
		return "You have already voted!"
	case errors.Is(err, models.ErrPollIsEnd):
		return "poll is closed"
	case errors.Is(err, models.ErrOptionIsNotFound):
		return "not found option, see `/vote poll`"
	case errors.Is(err, models.ErrVoteInFlight):
		return "your previous vote is still being submitted, see `/vote status`"
	default:
		return ""
	}
}

func errorMessage(err error) string {
	if msg := userMessage(err); msg != "" {
		return msg
	}
	return msgSomethingWrong
}

func (h *VoteHandler) ShowPoll() error {
	poll, err := h.s.Poll()
	if err != nil {
		return err
	}
	status := "open"
	if !poll.IsOpen {
		status = "closed"
	}
	message := fmt.Sprintf("**Poll #%d**: %s (%s)\n**Options**:\n", poll.Index, poll.Title, status)
	for _, option := range poll.Options {
		message += fmt.Sprintf("  [%d] *%s* %s\n", option.Index, option.Title, option.Description)
	}
	return h.SendMsg(message)
}

func (h *VoteHandler) CastVote(arg string) error {
	poll, err := h.s.Poll()
	if err != nil {
		return err
	}
	option := parseOption(poll, arg)
	h.l.Debug("data for voting", zap.String("arg", arg), zap.Int("option_index", option))

	status, err := h.s.CastVote(option)
	if err != nil {
		if userMessage(err) != "" {
			h.l.Warn("vote refused", zap.Int("option_index", option), zap.Error(err))
			return err
		}
		return fmt.Errorf("handler: failed to vote: %w", err)
	}
	h.l.Info("vote started",
		zap.String("attempt_id", status.AttemptID),
		zap.Int("option_index", option))
	return nil
}

// parseOption accepts an option index or part of an option title.
// It returns -1 when nothing matches.
func parseOption(poll *models.Poll, arg string) int {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return -1
	}
	if idx, err := strconv.Atoi(arg); err == nil {
		return idx
	}
	lowered := strings.ToLower(arg)
	for _, option := range poll.Options {
		if strings.Contains(strings.ToLower(option.Title), lowered) {
			return option.Index
		}
	}
	return -1
}

func (h *VoteHandler) ShowResults() error {
	res, err := h.s.Results()
	if err != nil {
		return err
	}
	message := fmt.Sprintf("**Results**: %s\n", res.Poll.Title)
	for _, option := range res.Poll.Options {
		count := res.Tally[option.Index]
		message += fmt.Sprintf("  [%d] votes: **%d** (%s) (*%s*)\n", option.Index, count, percent(count, res.Total), option.Title)
	}
	message += fmt.Sprintf("**Total**: %d", res.Total)
	if res.Stale {
		message += "\n_live feed is reconnecting, results may lag_"
	}
	return h.SendMsg(message)
}

func percent(count, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.0f%%", float64(count)*100/float64(total))
}

func (h *VoteHandler) ShowTimeline() error {
	poll, err := h.s.Poll()
	if err != nil {
		return err
	}
	tl := h.tl.Current()
	var b strings.Builder
	b.WriteString("**Timeline** (votes per minute)\n")
	for _, bucket := range tl.Buckets {
		b.WriteString("`" + time.UnixMilli(bucket.Time).UTC().Format("15:04") + "`")
		for _, option := range poll.Options {
			count := bucket.Votes[option.Index]
			fmt.Fprintf(&b, " %s %s %d", option.Title, bar(tl.Scale(count)), count)
		}
		if bucket.Current {
			b.WriteString(" _(now)_")
		}
		b.WriteString("\n")
	}
	return h.SendMsg(b.String())
}

const barWidth = 10

func bar(scale float64) string {
	n := int(scale*barWidth + 0.5)
	return strings.Repeat("▇", n) + strings.Repeat("·", barWidth-n)
}

func (h *VoteHandler) ShowStatus() error {
	session := h.s.Session()
	var message string
	switch {
	case !session.Connected:
		message = "**Wallet**: not connected\n"
	case session.HasVoted:
		message = fmt.Sprintf("**Wallet**: %s (voted for option %d)\n", session.Address.Hex(), *session.VotedOption)
	default:
		message = fmt.Sprintf("**Wallet**: %s (not voted yet)\n", session.Address.Hex())
	}
	return h.SendMsg(message + renderProgress(NewProgress(h.s.TxStatus(), h.txURL)))
}

// OnTxUpdate posts each transaction state change to the channel.
func (h *VoteHandler) OnTxUpdate(status models.TxStatus) {
	if err := h.SendMsg(renderProgress(NewProgress(status, h.txURL))); err != nil {
		h.l.Error("failed to post transaction progress",
			zap.String("attempt_id", status.AttemptID),
			zap.Stringer("state", status.State),
			zap.Error(err))
	}
}

func renderProgress(p Progress) string {
	message := fmt.Sprintf("**%s**: %s", p.Title, p.Description)
	if p.Step >= 0 && p.State != models.TxIdle {
		var steps []string
		for i, step := range ProgressSteps {
			switch {
			case i < p.Step:
				steps = append(steps, "~~"+step+"~~")
			case i == p.Step:
				steps = append(steps, "**"+step+"**")
			default:
				steps = append(steps, step)
			}
		}
		message += "\n" + strings.Join(steps, " → ")
	}
	switch {
	case p.ExplorerURL != "":
		message += fmt.Sprintf("\n[%s](%s)", p.TxHash, p.ExplorerURL)
	case p.TxHash != "":
		message += "\n" + p.TxHash
	}
	return message
}

func (h *VoteHandler) reply(post *model.Post, message string) {
	_, _, err := h.client.CreatePostEphemeral(&model.PostEphemeral{
		UserID: post.UserId,
		Post:   &model.Post{ChannelId: post.ChannelId, Message: message},
	})
	if err != nil {
		h.l.Error("failed to send ephemeral post", zap.Error(err))
	}
}

func (h *VoteHandler) SendMsg(message string) error {
	post := &model.Post{
		ChannelId: h.channelID,
		Message:   message,
	}
	_, resp, err := h.client.CreatePost(post)
	if resp != nil {
		h.l.Debug("send new message",
			zap.String("channel_id", post.ChannelId),
			zap.String("message", post.Message),
			zap.Int("status_code", resp.StatusCode))
	}
	if err != nil {
		return fmt.Errorf("handler: failed to send message: %w", err)
	}
	return nil
}
