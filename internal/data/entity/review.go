package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinScore = 1
	MaxScore = 10
)

type Review struct {
	ID       uuid.UUID `db:"id"`
	TitleID  uuid.UUID `db:"title_id"`
	AuthorID uuid.UUID `db:"author_id"`
	Text     string    `db:"text"`
	Score    int       `db:"score"`
	PubDate  time.Time `db:"pub_date"`

	// joined from users
	AuthorUsername string `db:"author_username"`
}
