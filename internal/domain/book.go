package domain

import "time"

// Book is the resource managed by the catalog. It is created and deleted, never updated.
type Book struct {
	ID        int64     `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Author    string    `db:"author" json:"author"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}
