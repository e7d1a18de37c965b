package publisher

import (
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hn_reader/internal/domain"
)

func TestNewStoryMessage_Action(t *testing.T) {
	story := &domain.Story{ID: 1}
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.FixedZone("X", 3600))

	created := newStoryMessage(story, true, now)
	assert.Equal(t, ActionCreate, created.Action)
	assert.Equal(t, time.UTC, created.Timestamp.Location())

	updated := newStoryMessage(story, false, now)
	assert.Equal(t, ActionUpdate, updated.Action)
}

func TestPublishing(t *testing.T) {
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	msg := newStoryMessage(&domain.Story{ID: 8863, Title: "My YC app: Dropbox", Type: domain.StoryTypeStory}, true, now)

	pub, err := publishing(msg)
	require.NoError(t, err)

	assert.Equal(t, uint8(amqp.Persistent), pub.DeliveryMode)
	assert.Equal(t, "application/json", pub.ContentType)
	assert.Equal(t, "story.create", pub.Type)
	assert.Equal(t, "8863-1769940000000000000", pub.MessageId)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(pub.Body, &decoded))
	assert.Equal(t, "create", decoded["action"])
	story := decoded["story"].(map[string]any)
	assert.Equal(t, float64(8863), story["id"])
	assert.Equal(t, "story", story["story_type"])
}
