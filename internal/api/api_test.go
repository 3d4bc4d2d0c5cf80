package api

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jaam8/vote_tracker/internal/models"
	"github.com/jaam8/vote_tracker/internal/service"
	"github.com/jaam8/vote_tracker/internal/timeline"
	"github.com/mattermost/mattermost-server/v6/model"
)

var voter = common.HexToAddress("0x00000000000000000000000000000000000000a1")

func explorer(txHash common.Hash) string {
	return "https://sepolia-blockscout.lisk.com/tx/" + txHash.Hex()
}

type fakeService struct {
	poll     *models.Poll
	pollErr  error
	castErr  error
	cast     []int
	results  service.Results
	timeline timeline.Timeline
	status   models.TxStatus
	session  service.Session
	loggedIn bool
}

func newFakeService() *fakeService {
	poll := &models.Poll{
		Index:  3,
		Title:  "Best mascot",
		IsOpen: true,
		Options: []models.Option{
			{Index: 0, Title: "Cool Llama", Description: "chill"},
			{Index: 1, Title: "Triangle Man", Description: "pointy"},
		},
	}
	return &fakeService{
		poll:     poll,
		results:  service.Results{Poll: poll, Tally: models.Tally{0: 3, 1: 1}, Total: 4},
		session:  service.Session{Connected: true, Address: voter, Wallet: "key"},
		loggedIn: true,
	}
}

func (f *fakeService) Poll() (*models.Poll, error) {
	if f.pollErr != nil {
		return nil, f.pollErr
	}
	return f.poll, nil
}

func (f *fakeService) CastVote(optionIndex int) (models.TxStatus, error) {
	f.cast = append(f.cast, optionIndex)
	if f.castErr != nil {
		return models.TxStatus{}, f.castErr
	}
	if optionIndex < 0 || optionIndex >= len(f.poll.Options) {
		return models.TxStatus{}, models.ErrOptionIsNotFound
	}
	f.status = models.TxStatus{AttemptID: "a1", State: models.TxWaitingSignature, PollIndex: 3, OptionIndex: uint64(optionIndex)}
	return f.status, nil
}

func (f *fakeService) Results() (service.Results, error) {
	if f.pollErr != nil {
		return service.Results{}, f.pollErr
	}
	return f.results, nil
}

func (f *fakeService) Current() timeline.Timeline { return f.timeline }

func (f *fakeService) TxStatus() models.TxStatus { return f.status }

func (f *fakeService) Session() service.Session {
	if !f.loggedIn {
		return service.Session{Wallet: "key"}
	}
	return f.session
}

func (f *fakeService) Logout() { f.loggedIn = false }

type fakePoster struct {
	mu        sync.Mutex
	posts     []*model.Post
	ephemeral []*model.PostEphemeral
	err       error
}

func (p *fakePoster) CreatePost(post *model.Post) (*model.Post, *model.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, &model.Response{StatusCode: 500}, p.err
	}
	p.posts = append(p.posts, post)
	return post, &model.Response{StatusCode: 201}, nil
}

func (p *fakePoster) CreatePostEphemeral(post *model.PostEphemeral) (*model.Post, *model.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ephemeral = append(p.ephemeral, post)
	return post.Post, &model.Response{StatusCode: 201}, nil
}

func (p *fakePoster) lastPost() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.posts) == 0 {
		return ""
	}
	return p.posts[len(p.posts)-1].Message
}

func (p *fakePoster) lastReply() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.ephemeral) == 0 {
		return ""
	}
	return p.ephemeral[len(p.ephemeral)-1].Post.Message
}

var errBoom = errors.New("boom")
