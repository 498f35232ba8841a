package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"

	"github.com/studyforge/studyforge/internal/model"
	appErr "github.com/studyforge/studyforge/internal/pkg/errors"
)

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) Create(ctx context.Context, doc *model.Document) error {
	data := map[string]interface{}{
		"id":      doc.ID,
		"user_id": doc.UserID,
		"title":   doc.Title,
		"content": doc.Content,
		"state":   doc.State,
		"ctime":   doc.Ctime,
		"mtime":   doc.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("documents", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, sqlx.Rebind(sqlx.DOLLAR, sqlStr), args...)
	return err
}

func (r *DocumentRepo) Get(ctx context.Context, userID, docID string) (*model.Document, error) {
	const query = `
		SELECT id, user_id, title, content, state, ctime, mtime
		FROM documents
		WHERE id = $1 AND user_id = $2 AND state = $3
	`
	row := r.db.QueryRowContext(ctx, query, docID, userID, model.DocumentStateNormal)
	var doc model.Document
	if err := row.Scan(&doc.ID, &doc.UserID, &doc.Title, &doc.Content, &doc.State, &doc.Ctime, &doc.Mtime); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepo) List(ctx context.Context, userID string, limit int) ([]model.Document, error) {
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	const query = `
		SELECT id, user_id, title, state, ctime, mtime
		FROM documents
		WHERE user_id = $1 AND state = $2
		ORDER BY mtime DESC
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, userID, model.DocumentStateNormal, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []model.Document
	for rows.Next() {
		var doc model.Document
		if err := rows.Scan(&doc.ID, &doc.UserID, &doc.Title, &doc.State, &doc.Ctime, &doc.Mtime); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *DocumentRepo) Delete(ctx context.Context, userID, docID string, now int64) error {
	where := map[string]interface{}{
		"id":      docID,
		"user_id": userID,
		"state":   model.DocumentStateNormal,
	}
	update := map[string]interface{}{
		"state": model.DocumentStateDeleted,
		"mtime": now,
	}
	sqlStr, args, err := builder.BuildUpdate("documents", where, update)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, sqlx.Rebind(sqlx.DOLLAR, sqlStr), args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}
