package store

import "chatrelay/pkg/models"

func messageFixture(id string) models.Message {
	return models.Message{
		ID:        id,
		Text:      "hello",
		Type:      models.TypeText,
		Username:  "testuser",
		Timestamp: "2025-01-01T00:00:00.000Z",
	}
}
