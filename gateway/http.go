package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/pborman/uuid"
	"github.com/pkg/errors"
	"golang.org/x/net/publicsuffix"

	"github.com/mqy/topicsync/chatstore"
)

const (
	defaultTimeout = 10 * time.Second

	// response bodies larger than this are rejected.
	maxBodyBytes = 4 << 20

	botErrorReply = "An error occurred :("
)

type Config struct {
	// BaseURL of the backend, e.g. http://127.0.0.1:5000.
	BaseURL string
	// Timeout bounds every request; zero means 10s.
	Timeout time.Duration
	// Jar is shared with the realtime channel dialer so both carry the same
	// session cookies. A public suffix aware jar is created when nil.
	Jar http.CookieJar
}

// NewJar creates the cookie jar used by default.
func NewJar() http.CookieJar {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		// cookiejar.New never fails with valid options.
		panic(err)
	}
	return jar
}

// HTTPGateway implements interface `IGateway` over the backend REST API.
type HTTPGateway struct {
	base   *url.URL
	client *http.Client
}

var _ IGateway = (*HTTPGateway)(nil)

func NewHTTPGateway(conf Config) (*HTTPGateway, error) {
	base, err := url.Parse(strings.TrimRight(conf.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("gateway: bad base url `%s`: %v", conf.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("gateway: base url `%s`: scheme must be http or https", conf.BaseURL)
	}
	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	jar := conf.Jar
	if jar == nil {
		jar = NewJar()
	}
	return &HTTPGateway{
		base:   base,
		client: &http.Client{Timeout: timeout, Jar: jar},
	}, nil
}

// do sends the request and decodes a JSON response into out (if not nil).
func (g *HTTPGateway) do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	u := *g.base
	u.Path += path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.Wrapf(err, "%s %s: marshal", method, path)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	reqID := uuid.New()
	req.Header.Set("X-Request-Id", reqID)

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		glog.Errorf("do(): %s %s, request: %s, error: %v", method, path, reqID, err)
		return errors.Wrapf(ErrNetwork, "%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	glog.V(5).Infof("do(): %s %s, request: %s, status: %d, took %s", method, path, reqID, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return errors.Wrapf(ErrNetwork, "%s %s: read body: %v", method, path, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errors.Wrapf(ErrNotFound, "%s %s", method, path)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		glog.Errorf("do(): %s %s, request: %s, unexpected status: %d, body: %s", method, path, reqID, resp.StatusCode, truncate(data))
		return errors.Wrapf(ErrNetwork, "%s %s: status %d", method, path, resp.StatusCode)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		glog.Errorf("do(): %s %s, request: %s, decode error: %v, body: %s", method, path, reqID, err, truncate(data))
		return errors.Wrapf(err, "%s %s: decode", method, path)
	}
	return nil
}

func truncate(b []byte) string {
	s := string(b)
	if len(s) > 100 {
		s = s[:100] + " ..."
	}
	return s
}

func (g *HTTPGateway) GetOrCreateUserID(ctx context.Context) (chatstore.UserID, error) {
	var out struct {
		UUID chatstore.UserID `json:"uuid"`
	}
	if err := g.do(ctx, http.MethodPost, "/create-user", nil, struct{}{}, &out); err != nil {
		return "", err
	}
	if out.UUID == "" {
		return "", errors.Wrap(ErrNetwork, "create-user: empty uuid")
	}
	return out.UUID, nil
}

func (g *HTTPGateway) GetTopics(ctx context.Context, uid chatstore.UserID) ([]TopicSummary, error) {
	var out []TopicSummary
	if err := g.do(ctx, http.MethodGet, "/user-topics/"+string(uid), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *HTTPGateway) CreateTopic(ctx context.Context, uid chatstore.UserID, title string) (chatstore.TopicID, error) {
	in := struct {
		Title string `json:"title"`
	}{title}
	var out struct {
		ID chatstore.TopicID `json:"id"`
	}
	if err := g.do(ctx, http.MethodPost, "/user-topics/"+string(uid), nil, &in, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", errors.Wrap(ErrNetwork, "create topic: empty id")
	}
	return out.ID, nil
}

func (g *HTTPGateway) GetTopic(ctx context.Context, id chatstore.TopicID) (string, error) {
	var out struct {
		Title string `json:"title"`
	}
	if err := g.do(ctx, http.MethodGet, "/topics/"+string(id), nil, nil, &out); err != nil {
		return "", err
	}
	return out.Title, nil
}

func (g *HTTPGateway) GetChatsByTopic(ctx context.Context, id chatstore.TopicID, uid chatstore.UserID) (map[chatstore.ChatID]ChatMetadata, error) {
	var list []ChatMetadata
	err := g.do(ctx, http.MethodGet, "/chatmetadata/"+string(id), nil, nil, &list)
	if IsNotFound(err) {
		// the backend answers 404 for a topic without chats.
		return map[chatstore.ChatID]ChatMetadata{}, nil
	} else if err != nil {
		return nil, err
	}

	out := make(map[chatstore.ChatID]ChatMetadata, len(list))
	for _, m := range list {
		if m.ChatID == "" {
			continue
		}
		m.resolve(id, uid)
		out[m.ChatID] = m
	}
	return out, nil
}

func (g *HTTPGateway) CreateChat(ctx context.Context, creatorTopic, matchedTopic chatstore.TopicID,
	creatorUser, matchedUser chatstore.UserID) (chatstore.ChatID, error) {

	in := struct {
		CreatorTopicID chatstore.TopicID `json:"creatorTopicID"`
		MatchedTopicID chatstore.TopicID `json:"matchedTopicID"`
		UserCreatorID  chatstore.UserID  `json:"userCreatorID"`
		UserMatchedID  chatstore.UserID  `json:"userMatchedID"`
	}{creatorTopic, matchedTopic, creatorUser, matchedUser}
	var out struct {
		ChatID chatstore.ChatID `json:"chatID"`
	}
	if err := g.do(ctx, http.MethodPost, "/create-chat", nil, &in, &out); err != nil {
		return "", err
	}
	if out.ChatID == "" {
		return "", errors.Wrap(ErrNetwork, "create chat: empty chat id")
	}
	return out.ChatID, nil
}

type wireMessage struct {
	MessageNumber *int                            `json:"messageNumber"`
	SenderID      chatstore.UserID                `json:"senderID"`
	Text          string                          `json:"text"`
	Timestamp     chatstore.Timestamp             `json:"timestamp"`
	TopicID       chatstore.TopicID               `json:"topicID"`
	TopicInfo     *chatstore.TopicMatchSuggestion `json:"topicInfo"`
}

func (g *HTTPGateway) LoadChatMessages(ctx context.Context, id chatstore.ChatID) ([]chatstore.Message, error) {
	var list []wireMessage
	err := g.do(ctx, http.MethodGet, "/chats/"+string(id), nil, nil, &list)
	if IsNotFound(err) {
		// no messages yet.
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	out := make([]chatstore.Message, 0, len(list))
	for i, m := range list {
		msg := chatstore.Message{
			SequenceNumber: i,
			SenderID:       m.SenderID,
			Text:           m.Text,
			Timestamp:      m.Timestamp.Time,
			TopicInfo:      m.TopicInfo,
		}
		if msg.TopicInfo == nil && m.TopicID != "" {
			msg.TopicInfo = &chatstore.TopicMatchSuggestion{TopicID: m.TopicID, UserID: m.SenderID}
		}
		out = append(out, msg)
	}
	return out, nil
}

func (g *HTTPGateway) UpdateLastViewedAt(ctx context.Context, id chatstore.ChatID, uid chatstore.UserID) error {
	in := struct {
		ChatID chatstore.ChatID `json:"chatID"`
		UserID chatstore.UserID `json:"userID"`
	}{id, uid}
	return g.do(ctx, http.MethodPost, "/update-timestamp", nil, &in, nil)
}

type wireBotResponse struct {
	SegwayResponses string                            `json:"segwayResponses"`
	ConvMatches     []*chatstore.TopicMatchSuggestion `json:"convMatches"`
	TopicMatches    []*chatstore.TopicMatchSuggestion `json:"topicMatches"`
}

func (g *HTTPGateway) GetBotResponse(ctx context.Context, text string, uid chatstore.UserID) ([]BotReply, error) {
	query := url.Values{}
	query.Set("topic", text)
	query.Set("userID", string(uid))

	var out wireBotResponse
	if err := g.do(ctx, http.MethodGet, "/bot-response", query, nil, &out); err != nil {
		return nil, err
	}
	return out.replies(), nil
}

// replies pairs each reply line with the match at the same index. Without
// reply lines every match becomes a reply titled after the matched topic.
func (r *wireBotResponse) replies() []BotReply {
	matches := r.ConvMatches
	if len(matches) == 0 {
		matches = r.TopicMatches
	}

	var out []BotReply
	if strings.TrimSpace(r.SegwayResponses) == "" {
		for _, m := range matches {
			if m == nil {
				continue
			}
			out = append(out, BotReply{Text: m.TopicName, TopicInfo: m})
		}
		return out
	}

	for i, line := range strings.Split(r.SegwayResponses, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		reply := BotReply{Text: line}
		if i < len(matches) {
			reply.TopicInfo = matches[i]
		}
		out = append(out, reply)
	}
	return out
}

// BotErrorReply is what the brainstorm chat shows when the matching service fails.
func BotErrorReply() []BotReply {
	return []BotReply{{Text: botErrorReply}}
}
