package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/opuluxe-ai/fashion-assistant/internal/classifier"
	"github.com/opuluxe-ai/fashion-assistant/internal/llm"
	"github.com/opuluxe-ai/fashion-assistant/internal/model"
	"github.com/opuluxe-ai/fashion-assistant/internal/toolctx"
	"github.com/opuluxe-ai/fashion-assistant/internal/tryon"
	"github.com/opuluxe-ai/fashion-assistant/pkg/logger"
	"github.com/opuluxe-ai/fashion-assistant/pkg/metrics"
	"github.com/opuluxe-ai/fashion-assistant/pkg/tracing"
)

var (
	// ErrEmptyMessage is returned for a chat request with neither text nor image.
	ErrEmptyMessage = errors.New("message is required")

	// ErrInvalidImage is returned when the attached image cannot be decoded.
	ErrInvalidImage = errors.New("image must be a base64 encoded picture")

	// ErrPhotoUnavailable is returned for an image-only message when no
	// vision backend could read the photo.
	ErrPhotoUnavailable = errors.New("photo analysis is unavailable right now; please describe the outfit in text")
)

// imageOnlyUtterance stands in for the text of an image-only turn.
const imageOnlyUtterance = "I've shared a photo. Please give me fashion advice about it."

// PhotoInstruction asks a vision model for what a fashion consultant needs to
// know about a shared photo.
const PhotoInstruction = "Describe this photo for a fashion consultant. List each visible garment and accessory " +
	"with its colour, fabric, fit and styling. If a person is shown, note their visible build, skin tone and the setting."

// PhotoDescriber turns a shared photo into text the chat model can read.
type PhotoDescriber interface {
	Describe(ctx context.Context, img *llm.Image, instruction string) (string, error)
}

// ChatService runs one chat turn: classify, fetch context, ask the model,
// record the exchange.
type ChatService struct {
	classifier  *classifier.Classifier
	tools       toolctx.Provider
	photos      PhotoDescriber
	dispatcher  *Dispatcher
	recorder    *Recorder
	toolTimeout time.Duration
	logger      *logger.Logger
}

// NewChatService creates a chat service. tools may be nil, in which case no
// context is ever fetched. photos may be nil, in which case image-only
// messages are refused with ErrPhotoUnavailable.
func NewChatService(
	cls *classifier.Classifier,
	tools toolctx.Provider,
	photos PhotoDescriber,
	dispatcher *Dispatcher,
	recorder *Recorder,
	toolTimeout time.Duration,
	log *logger.Logger,
) *ChatService {
	return &ChatService{
		classifier:  cls,
		tools:       tools,
		photos:      photos,
		dispatcher:  dispatcher,
		recorder:    recorder,
		toolTimeout: toolTimeout,
		logger:      log.Named("chat"),
	}
}

// Reply answers req on behalf of owner. An empty owner is anonymous and the
// exchange is not recorded. Only the model call can fail the turn.
func (s *ChatService) Reply(ctx context.Context, owner string, req *model.ChatRequest) (*model.ChatReply, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" && req.Image == "" {
		return nil, ErrEmptyMessage
	}

	ctx, span := tracing.Start(ctx, "chat.reply", attribute.Bool("chat.anonymous", owner == ""))
	defer span.End()

	log := s.logger.With(zap.String("owner", ownerLabel(owner)))

	query := text
	if query == "" {
		query = imageOnlyUtterance
	}

	utterance := query
	if req.Image != "" {
		desc, err := s.describePhoto(ctx, log, req.Image)
		switch {
		case errors.Is(err, ErrInvalidImage):
			return nil, err
		case err != nil && text == "":
			tracing.Fail(span, err)
			return nil, ErrPhotoUnavailable
		case err == nil:
			utterance = fmt.Sprintf("%s\n\n%s\n%s\n%s", query, photoOpen, desc, photoClose)
		}
	}

	payload, kind := s.fetchContext(ctx, log, query)

	reply, err := s.dispatcher.Respond(ctx, utterance, req.History, payload)
	if err != nil {
		tracing.Fail(span, err)
		return nil, err
	}

	metrics.MessagesTotal.WithLabelValues(string(model.RoleUser)).Inc()
	metrics.MessagesTotal.WithLabelValues(string(model.RoleAssistant)).Inc()

	out := &model.ChatReply{
		Reply:                reply.Text,
		NeedsProfile:         reply.NeedsProfile,
		NeedsShoppingDetails: reply.NeedsShoppingDetails,
		ContextKind:          kind,
		Model:                reply.Model,
	}

	if owner != "" && s.recorder != nil {
		userTurn := model.Turn{Role: model.RoleUser, Text: text, Image: req.Image}
		assistantTurn := model.Turn{Role: model.RoleAssistant, Text: reply.Text}

		id, err := s.recorder.Append(ctx, owner, req.SessionID, userTurn, assistantTurn)
		if err != nil {
			metrics.PersistenceFailures.Inc()
			log.Warn("failed to record chat turn, returning reply anyway",
				zap.String("session_id", req.SessionID),
				zap.Error(err),
			)
		} else {
			out.SessionID = id
		}
	}

	return out, nil
}

// fetchContext returns tool context for utterance, or nil when none applies
// or the provider is unavailable.
func (s *ChatService) fetchContext(ctx context.Context, log *logger.Logger, utterance string) (*toolctx.Payload, string) {
	if s.tools == nil || s.classifier == nil {
		return nil, ""
	}
	req, ok := s.classifier.Classify(utterance)
	if !ok {
		return nil, ""
	}
	kind := string(req.Kind)

	ctx, span := tracing.Start(ctx, "chat.tool_context",
		attribute.String("tool.kind", kind),
		attribute.String("tool.tag", req.Tag),
	)
	defer span.End()

	if s.toolTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.toolTimeout)
		defer cancel()
	}

	payload, err := s.tools.Fetch(ctx, req)
	if err == nil && payload.Empty() {
		err = toolctx.ErrUnavailable
	}
	if err != nil {
		metrics.RecordToolFetch(kind, "unavailable")
		tracing.Fail(span, err)
		log.Warn("tool context unavailable, answering without it",
			zap.String("kind", kind),
			zap.String("tag", req.Tag),
			zap.Error(err),
		)
		return nil, ""
	}

	metrics.RecordToolFetch(kind, "ok")
	return payload, kind
}

// describePhoto decodes the attached image and has a vision backend describe
// it. A photo that cannot be read is logged; whether that fails the turn is
// up to the caller.
func (s *ChatService) describePhoto(ctx context.Context, log *logger.Logger, dataURI string) (string, error) {
	img, err := tryon.DecodeDataURI(dataURI)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if s.photos == nil {
		log.Warn("no vision backend configured, photo ignored")
		return "", tryon.ErrNoProviders
	}

	ctx, span := tracing.Start(ctx, "chat.describe_photo")
	defer span.End()

	desc, err := s.photos.Describe(ctx, img, PhotoInstruction)
	if err == nil && strings.TrimSpace(desc) == "" {
		err = tryon.ErrInvalidResult
	}
	if err != nil {
		tracing.Fail(span, err)
		log.Warn("photo could not be described, answering without it", zap.Error(err))
		return "", err
	}
	return strings.TrimSpace(desc), nil
}

func ownerLabel(owner string) string {
	if owner == "" {
		return "anonymous"
	}
	return owner
}
