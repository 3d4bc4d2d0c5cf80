package api

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jaam8/vote_tracker/internal/models"
	"github.com/jaam8/vote_tracker/internal/timeline"
	"github.com/mattermost/mattermost-server/v6/model"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	botID   = "bot"
	channel = "town-square"
)

func newChat(s *fakeService) (*VoteHandler, *fakePoster) {
	poster := &fakePoster{}
	return New(s, s, zap.NewNop(), poster, channel, explorer), poster
}

func userPost(message string) *model.Post {
	return &model.Post{UserId: "user", ChannelId: channel, Message: message}
}

func TestHandlePostIgnores(t *testing.T) {
	h, poster := newChat(newFakeService())
	h.HandlePost(&model.Post{UserId: botID, Message: "/vote poll"}, botID)
	h.HandlePost(userPost(""), botID)
	h.HandlePost(userPost("hello there"), botID)
	require.Empty(t, poster.posts)
	require.Empty(t, poster.ephemeral)
}

func TestHandlePostOtherChannel(t *testing.T) {
	s := newFakeService()
	h, poster := newChat(s)
	for _, cmd := range []string{"/vote cast 0", "/vote logout", "/vote poll"} {
		h.HandlePost(&model.Post{UserId: "user", ChannelId: "off-topic", Message: cmd}, botID)
	}
	require.Empty(t, s.cast)
	require.True(t, s.loggedIn)
	require.Empty(t, poster.posts)
	require.Empty(t, poster.ephemeral)
}

func TestHandlePostHelp(t *testing.T) {
	h, poster := newChat(newFakeService())
	h.HandlePost(userPost("/vote"), botID)
	require.Equal(t, HelpMessage, poster.lastReply())

	h.HandlePost(userPost("/vote dance"), botID)
	require.Equal(t, HelpMessage, poster.lastReply())
	require.Len(t, poster.ephemeral, 2)
	require.Equal(t, "user", poster.ephemeral[0].UserID)
}

func TestHandleMessageDecodesEvent(t *testing.T) {
	h, poster := newChat(newFakeService())
	raw, err := json.Marshal(userPost("/vote poll"))
	require.NoError(t, err)

	event := model.NewWebSocketEvent(model.WebsocketEventPosted, "", channel, "", nil)
	event.Add("post", string(raw))
	HandleMessage(h, event, botID)
	require.Contains(t, poster.lastPost(), "**Poll #3**: Best mascot (open)")
}

func TestShowPoll(t *testing.T) {
	h, poster := newChat(newFakeService())
	h.HandlePost(userPost("/vote poll"), botID)
	require.Equal(t, "**Poll #3**: Best mascot (open)\n**Options**:\n  [0] *Cool Llama* chill\n  [1] *Triangle Man* pointy\n", poster.lastPost())
	require.Equal(t, channel, poster.posts[0].ChannelId)
}

func TestCastByIndexAndTitle(t *testing.T) {
	s := newFakeService()
	h, poster := newChat(s)

	h.HandlePost(userPost("/vote cast 1"), botID)
	h.HandlePost(userPost("/vote cast cool llama"), botID)
	require.Equal(t, []int{1, 0}, s.cast)
	require.Empty(t, poster.ephemeral)

	h.HandlePost(userPost("/vote cast square dude"), botID)
	require.Equal(t, -1, s.cast[2])
	require.Equal(t, "not found option, see `/vote poll`", poster.lastReply())
}

func TestCastRefusals(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{models.ErrNoSession, "Please connect your wallet first"},
		{models.ErrVoteAlreadyExists, "You have already voted!"},
		{models.ErrPollIsEnd, "poll is closed"},
		{models.ErrVoteInFlight, "your previous vote is still being submitted, see `/vote status`"},
		{errBoom, msgSomethingWrong},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			s := newFakeService()
			s.castErr = tt.err
			h, poster := newChat(s)
			h.HandlePost(userPost("/vote cast 0"), botID)
			require.Equal(t, tt.want, poster.lastReply())
		})
	}
}

func TestPollNotLoaded(t *testing.T) {
	s := newFakeService()
	s.pollErr = models.ErrPollNotLoaded
	h, poster := newChat(s)
	for _, cmd := range []string{"poll", "cast 0", "results", "timeline"} {
		h.HandlePost(userPost("/vote "+cmd), botID)
		require.Equal(t, "poll is not loaded yet, try again in a moment", poster.lastReply(), cmd)
	}
	require.Empty(t, s.cast)
}

func TestShowResults(t *testing.T) {
	s := newFakeService()
	s.results.Stale = true
	h, poster := newChat(s)
	h.HandlePost(userPost("/vote results"), botID)
	require.Equal(t, "**Results**: Best mascot\n"+
		"  [0] votes: **3** (75%) (*Cool Llama*)\n"+
		"  [1] votes: **1** (25%) (*Triangle Man*)\n"+
		"**Total**: 4\n"+
		"_live feed is reconnecting, results may lag_", poster.lastPost())
}

func TestShowTimeline(t *testing.T) {
	s := newFakeService()
	s.timeline = timeline.Timeline{
		Buckets: []timeline.Bucket{
			{Time: 1_700_000_040_000, Votes: map[int]int{0: 2}},
			{Time: 1_700_000_100_000, Votes: map[int]int{0: 1, 1: 1}, Current: true},
		},
		MaxCount: 2,
	}
	h, poster := newChat(s)
	h.HandlePost(userPost("/vote timeline"), botID)
	require.Equal(t, "**Timeline** (votes per minute)\n"+
		"`22:14` Cool Llama ▇▇▇▇▇▇▇▇▇▇ 2 Triangle Man ·········· 0\n"+
		"`22:15` Cool Llama ▇▇▇▇▇····· 1 Triangle Man ▇▇▇▇▇····· 1 _(now)_\n", poster.lastPost())
}

func TestShowStatusAndLogout(t *testing.T) {
	s := newFakeService()
	s.status = models.TxStatus{State: models.TxConfirming, TxHash: common.HexToHash("0x01")}
	h, poster := newChat(s)

	h.HandlePost(userPost("/vote status"), botID)
	require.Equal(t, "**Wallet**: "+voter.Hex()+" (not voted yet)\n"+
		"**Confirming Transaction**: Waiting for blockchain confirmation...\n"+
		"~~Sign Transaction~~ → ~~Submit to Network~~ → **Confirm**\n"+
		"["+common.HexToHash("0x01").Hex()+"]("+explorer(common.HexToHash("0x01"))+")", poster.lastPost())

	h.HandlePost(userPost("/vote logout"), botID)
	require.Equal(t, "wallet disconnected", poster.lastReply())
	h.HandlePost(userPost("/vote status"), botID)
	require.Contains(t, poster.lastPost(), "**Wallet**: not connected\n")
}

func TestOnTxUpdate(t *testing.T) {
	h, poster := newChat(newFakeService())
	h.OnTxUpdate(models.TxStatus{State: models.TxWaitingSignature})
	require.Equal(t, "**Waiting for Signature**: Please confirm the transaction in your wallet\n"+
		"**Sign Transaction** → Submit to Network → Confirm", poster.lastPost())

	h.OnTxUpdate(models.TxStatus{State: models.TxError, Error: models.MsgUserRejected})
	require.Equal(t, "**Transaction Failed**: Transaction rejected in wallet", poster.lastPost())

	poster.err = errBoom
	h.OnTxUpdate(models.TxStatus{State: models.TxSuccess})
	require.Len(t, poster.posts, 2)
}
