package pgx

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// GraphDBStorage implements store.GraphStore on Postgres with pgvector.
//
// The graph is modeled relationally: chunks point at documents, entities are
// linked from chunks through chunk_entities, and relationships connect
// entities directly. Membership edges live in their own tables, so walking
// the relationships table can never traverse through chunk, document or
// community nodes.
type GraphDBStorage struct {
	conn *pgxpool.Pool
}

func NewGraphDBStorage(conn *pgxpool.Pool) *GraphDBStorage {
	return &GraphDBStorage{conn: conn}
}
