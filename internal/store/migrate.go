package store

import "context"

// Migrate applies the schema. Statements are idempotent so the service can
// run it unconditionally at startup.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tenants (
			tenant_id   text PRIMARY KEY,
			full_name   text NOT NULL,
			birth_date  text,
			birth_place text,
			address     text,
			email       text,
			created_at  timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS leases (
			lease_id          text PRIMARY KEY,
			unit_id           text NOT NULL,
			primary_tenant_id text REFERENCES tenants(tenant_id),
			created_at        timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS lease_tenants (
			lease_id   text NOT NULL REFERENCES leases(lease_id),
			tenant_id  text NOT NULL REFERENCES tenants(tenant_id),
			role       text NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now(),
			PRIMARY KEY (lease_id, tenant_id)
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			document_id        text PRIMARY KEY,
			lease_id           text NOT NULL,
			unit_id            text NOT NULL,
			doc_type           text NOT NULL,
			filename           text NOT NULL,
			storage_path       text NOT NULL,
			sha256             text NOT NULL,
			parent_document_id text REFERENCES documents(document_id),
			final_document_id  text REFERENCES documents(document_id),
			finalized_at       timestamptz,
			created_at         timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS signature_events (
			signature_id    text PRIMARY KEY,
			document_id     text NOT NULL REFERENCES documents(document_id),
			signer_role     text NOT NULL,
			tenant_id       text,
			signer_name     text NOT NULL,
			image_path      text NOT NULL,
			sequence        int  NOT NULL,
			consent         boolean NOT NULL,
			ip              text NOT NULL,
			user_agent      text NOT NULL,
			document_sha256 text NOT NULL,
			signed_at       timestamptz NOT NULL
		)`,
		// One active signature per (document, identity); landlord rows have
		// a NULL tenant_id, folded to '' so the key stays total.
		`CREATE UNIQUE INDEX IF NOT EXISTS signature_events_identity_idx
			ON signature_events (document_id, signer_role, COALESCE(tenant_id,''))`,
		`CREATE TABLE IF NOT EXISTS signing_links (
			link_id     text PRIMARY KEY,
			document_id text NOT NULL REFERENCES documents(document_id),
			token_hash  text NOT NULL UNIQUE,
			expires_at  timestamptz NOT NULL,
			created_at  timestamptz NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.DB.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
