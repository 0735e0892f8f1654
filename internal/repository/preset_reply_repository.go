package repository

import (
	"database/sql"
	"fmt"

	"github.com/helpdesk-io/helpdesk-ce/internal/database"
	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// PresetReplyRepository handles database operations for canned responses
type PresetReplyRepository struct {
	db *sql.DB
}

// NewPresetReplyRepository creates a new preset reply repository
func NewPresetReplyRepository(db *sql.DB) *PresetReplyRepository {
	return &PresetReplyRepository{db: db}
}

// Create inserts a reply with its queue restrictions.
func (r *PresetReplyRepository) Create(reply *models.PresetReply) error {
	adapter := database.GetAdapter()

	id, err := adapter.InsertWithReturning(r.db,
		`INSERT INTO preset_replies (name, body) VALUES ($1, $2) RETURNING id`,
		reply.Name, reply.Body)
	if err != nil {
		return fmt.Errorf("create preset reply: %w", err)
	}
	reply.ID = uint(id)

	for _, queueID := range reply.QueueIDs {
		_, err := adapter.Exec(r.db,
			`INSERT INTO preset_reply_queues (preset_reply_id, queue_id) VALUES ($1, $2)`,
			reply.ID, queueID)
		if err != nil {
			return fmt.Errorf("link preset reply %d to queue %d: %w", reply.ID, queueID, err)
		}
	}
	return nil
}

// ListForQueue retrieves the replies offered for a queue: unrestricted
// replies plus those explicitly linked to it.
func (r *PresetReplyRepository) ListForQueue(queueID uint) ([]*models.PresetReply, error) {
	query := database.ConvertPlaceholders(`
		SELECT p.id, p.name, p.body
		FROM preset_replies p
		WHERE NOT EXISTS (SELECT 1 FROM preset_reply_queues q WHERE q.preset_reply_id = p.id)
			OR EXISTS (SELECT 1 FROM preset_reply_queues q WHERE q.preset_reply_id = p.id AND q.queue_id = $1)
		ORDER BY p.name`)

	rows, err := r.db.Query(query, queueID)
	if err != nil {
		return nil, fmt.Errorf("list preset replies for queue %d: %w", queueID, err)
	}
	defer rows.Close()

	var replies []*models.PresetReply
	for rows.Next() {
		var reply models.PresetReply
		if err := rows.Scan(&reply.ID, &reply.Name, &reply.Body); err != nil {
			return nil, err
		}
		replies = append(replies, &reply)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, reply := range replies {
		queueIDs, err := r.listQueueIDs(reply.ID)
		if err != nil {
			return nil, err
		}
		reply.QueueIDs = queueIDs
	}
	return replies, nil
}

func (r *PresetReplyRepository) listQueueIDs(replyID uint) ([]uint, error) {
	query := database.ConvertPlaceholders(
		`SELECT queue_id FROM preset_reply_queues WHERE preset_reply_id = $1 ORDER BY queue_id`)

	rows, err := r.db.Query(query, replyID)
	if err != nil {
		return nil, fmt.Errorf("list queues for preset reply %d: %w", replyID, err)
	}
	defer rows.Close()

	var ids []uint
	for rows.Next() {
		var id uint
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
