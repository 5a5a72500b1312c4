package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/syscoin/svcconsensus/internal/codec"
	"github.com/syscoin/svcconsensus/pkg/types"
)

// Postgres is the durable backend: each of the five service tables holds
// one row per guid, the row's value a length-prefixed blob of the
// encoded version list (§6 "Persisted state"). It loads the whole guid's
// list into memory, mutates it with PutToList, and writes the blob back —
// the same semantics as Memory, just durable across restarts.
type Postgres struct {
	pool *pgxpool.Pool
}

func ConnectPostgres(connStr string) (*Postgres, error) {
	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("store: connect postgres: %w", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("store: ping postgres: %w", err)
	}
	log.Println("[store] connected to PostgreSQL service store")
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

func (p *Postgres) InitSchema() error {
	schemaBytes, err := os.ReadFile("internal/store/schema.sql")
	if err != nil {
		return fmt.Errorf("store: read schema: %w", err)
	}
	if _, err := p.pool.Exec(context.Background(), string(schemaBytes)); err != nil {
		return fmt.Errorf("store: apply schema: %w", err)
	}
	log.Println("[store] schema initialized")
	return nil
}

func (p *Postgres) putBlob(ctx context.Context, table, keyCol string, guid []byte, blob []byte) error {
	sql := fmt.Sprintf(`
		INSERT INTO %s (guid, data) VALUES ($1, $2)
		ON CONFLICT (guid) DO UPDATE SET data = EXCLUDED.data
	`, table)
	_, err := p.pool.Exec(ctx, sql, guid, blob)
	if err != nil {
		return fmt.Errorf("store: put %s: %w", keyCol, err)
	}
	return nil
}

func (p *Postgres) getBlob(ctx context.Context, table string, guid []byte) ([]byte, bool, error) {
	sql := fmt.Sprintf(`SELECT data FROM %s WHERE guid = $1`, table)
	var blob []byte
	err := p.pool.QueryRow(ctx, sql, guid).Scan(&blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil // not found is not an error; caller checks ok
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: get %s: %w", table, err)
	}
	return blob, true, nil
}

// PutAlias loads the current list for a.GUID, applies PutToList, and
// persists the result. Errors are returned wrapped; the validator does not
// call this backend (it writes through store.Store).
func (p *Postgres) PutAlias(ctx context.Context, a *types.Alias) error {
	list, _, err := p.loadAliasList(ctx, a.GUID)
	if err != nil {
		return err
	}
	list = PutToList(list, a)
	blob, err := codec.EncodeAliasList(list)
	if err != nil {
		return fmt.Errorf("store: encode alias list: %w", err)
	}
	return p.putBlob(ctx, "alias_store", "namei", a.GUID, blob)
}

func (p *Postgres) loadAliasList(ctx context.Context, guid []byte) ([]*types.Alias, bool, error) {
	blob, ok, err := p.getBlob(ctx, "alias_store", guid)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	list, err := codec.DecodeAliasList(blob)
	if err != nil {
		return nil, false, fmt.Errorf("store: decode alias list: %w", err)
	}
	return list, true, nil
}

func (p *Postgres) GetAlias(ctx context.Context, guid []byte) (*types.Alias, bool, error) {
	list, ok, err := p.loadAliasList(ctx, guid)
	if err != nil || !ok {
		return nil, false, err
	}
	a, ok := Current(list)
	return a, ok, nil
}

func (p *Postgres) PutOffer(ctx context.Context, o *types.Offer) error {
	blob, ok, err := p.getBlob(ctx, "offer_store", o.GUID)
	if err != nil {
		return err
	}
	var list []*types.Offer
	if ok {
		if list, err = codec.DecodeOfferList(blob); err != nil {
			return fmt.Errorf("store: decode offer list: %w", err)
		}
	}
	list = PutToList(list, o)
	out, err := codec.EncodeOfferList(list)
	if err != nil {
		return fmt.Errorf("store: encode offer list: %w", err)
	}
	return p.putBlob(ctx, "offer_store", "offeri", o.GUID, out)
}

func (p *Postgres) GetOffer(ctx context.Context, guid []byte) (*types.Offer, bool, error) {
	blob, ok, err := p.getBlob(ctx, "offer_store", guid)
	if err != nil || !ok {
		return nil, false, err
	}
	list, err := codec.DecodeOfferList(blob)
	if err != nil {
		return nil, false, fmt.Errorf("store: decode offer list: %w", err)
	}
	o, ok := Current(list)
	return o, ok, nil
}

func (p *Postgres) PutAccept(ctx context.Context, a *types.Accept) error {
	blob, ok, err := p.getBlob(ctx, "accept_store", a.AcceptGUID)
	if err != nil {
		return err
	}
	var list []*types.Accept
	if ok {
		if list, err = codec.DecodeAcceptList(blob); err != nil {
			return fmt.Errorf("store: decode accept list: %w", err)
		}
	}
	list = PutToList(list, a)
	out, err := codec.EncodeAcceptList(list)
	if err != nil {
		return fmt.Errorf("store: encode accept list: %w", err)
	}
	return p.putBlob(ctx, "accept_store", "accepti", a.AcceptGUID, out)
}

func (p *Postgres) GetAccept(ctx context.Context, guid []byte) (*types.Accept, bool, error) {
	blob, ok, err := p.getBlob(ctx, "accept_store", guid)
	if err != nil || !ok {
		return nil, false, err
	}
	list, err := codec.DecodeAcceptList(blob)
	if err != nil {
		return nil, false, fmt.Errorf("store: decode accept list: %w", err)
	}
	a, ok := Current(list)
	return a, ok, nil
}

func (p *Postgres) PutCert(ctx context.Context, c *types.Cert) error {
	blob, ok, err := p.getBlob(ctx, "cert_store", c.GUID)
	if err != nil {
		return err
	}
	var list []*types.Cert
	if ok {
		if list, err = codec.DecodeCertList(blob); err != nil {
			return fmt.Errorf("store: decode cert list: %w", err)
		}
	}
	list = PutToList(list, c)
	out, err := codec.EncodeCertList(list)
	if err != nil {
		return fmt.Errorf("store: encode cert list: %w", err)
	}
	return p.putBlob(ctx, "cert_store", "certi", c.GUID, out)
}

func (p *Postgres) GetCert(ctx context.Context, guid []byte) (*types.Cert, bool, error) {
	blob, ok, err := p.getBlob(ctx, "cert_store", guid)
	if err != nil || !ok {
		return nil, false, err
	}
	list, err := codec.DecodeCertList(blob)
	if err != nil {
		return nil, false, fmt.Errorf("store: decode cert list: %w", err)
	}
	c, ok := Current(list)
	return c, ok, nil
}

func (p *Postgres) PutEscrow(ctx context.Context, e *types.Escrow) error {
	blob, ok, err := p.getBlob(ctx, "escrow_store", e.GUID)
	if err != nil {
		return err
	}
	var list []*types.Escrow
	if ok {
		if list, err = codec.DecodeEscrowList(blob); err != nil {
			return fmt.Errorf("store: decode escrow list: %w", err)
		}
	}
	list = PutToList(list, e)
	out, err := codec.EncodeEscrowList(list)
	if err != nil {
		return fmt.Errorf("store: encode escrow list: %w", err)
	}
	return p.putBlob(ctx, "escrow_store", "escrowi", e.GUID, out)
}

func (p *Postgres) GetEscrow(ctx context.Context, guid []byte) (*types.Escrow, bool, error) {
	blob, ok, err := p.getBlob(ctx, "escrow_store", guid)
	if err != nil || !ok {
		return nil, false, err
	}
	list, err := codec.DecodeEscrowList(blob)
	if err != nil {
		return nil, false, fmt.Errorf("store: decode escrow list: %w", err)
	}
	e, ok := Current(list)
	return e, ok, nil
}

func (p *Postgres) PutMessage(ctx context.Context, msg *types.Message) error {
	blob, ok, err := p.getBlob(ctx, "message_store", msg.GUID)
	if err != nil {
		return err
	}
	var list []*types.Message
	if ok {
		if list, err = codec.DecodeMessageList(blob); err != nil {
			return fmt.Errorf("store: decode message list: %w", err)
		}
	}
	list = PutToList(list, msg)
	out, err := codec.EncodeMessageList(list)
	if err != nil {
		return fmt.Errorf("store: encode message list: %w", err)
	}
	return p.putBlob(ctx, "message_store", "messagei", msg.GUID, out)
}

func (p *Postgres) GetMessage(ctx context.Context, guid []byte) (*types.Message, bool, error) {
	blob, ok, err := p.getBlob(ctx, "message_store", guid)
	if err != nil || !ok {
		return nil, false, err
	}
	list, err := codec.DecodeMessageList(blob)
	if err != nil {
		return nil, false, fmt.Errorf("store: decode message list: %w", err)
	}
	m, ok := Current(list)
	return m, ok, nil
}

// GetPool exposes the connection pool for components that need raw access;
// nothing in this module calls it.
func (p *Postgres) GetPool() *pgxpool.Pool {
	return p.pool
}
