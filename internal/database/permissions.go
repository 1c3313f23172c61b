// Epimetrics - Public Health Metrics Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/epimetrics

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/epimetrics/internal/metrics"
	"github.com/tomtom215/epimetrics/internal/models"
)

// permissionSelect resolves every permission reference to a name. Unset
// wildcard references come back as "".
const permissionSelect = `
	SELECT p.id, p.name, th.name, st.name,
		COALESCE(tp.name, ''), COALESCE(m.name, ''),
		COALESCE(gt.name, ''), COALESCE(g.geography_code, ''),
		COALESCE(a.name, ''), COALESCE(s.name, '')
	FROM permissions p
	JOIN themes th ON th.id = p.theme_id
	JOIN sub_themes st ON st.id = p.sub_theme_id
	LEFT JOIN topics tp ON tp.id = p.topic_id
	LEFT JOIN metrics m ON m.id = p.metric_id
	LEFT JOIN geography_types gt ON gt.id = p.geography_type_id
	LEFT JOIN geographies g ON g.id = p.geography_id
	LEFT JOIN ages a ON a.id = p.age_id
	LEFT JOIN strata s ON s.id = p.stratum_id`

// PermissionsForGroup returns the permissions linked to groupID. An unknown
// group yields an empty set.
func (db *DB) PermissionsForGroup(ctx context.Context, groupID uuid.UUID) (models.PermissionSet, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, permissionSelect+`
		JOIN permission_groups pg ON pg.permission_id = p.id
		WHERE pg.group_id = CAST(? AS UUID)
		ORDER BY p.id`, groupID.String())
	metrics.RecordDBQuery("permissions_for_group", "permissions", time.Since(start), err)
	if err != nil {
		return nil, wrapQueryError("failed to load group permissions", err)
	}
	defer closeWithLog(rows, "rows")
	return scanPermissions(rows)
}

// ListPermissions returns every stored permission.
func (db *DB) ListPermissions(ctx context.Context) (models.PermissionSet, error) {
	rows, err := db.conn.QueryContext(ctx, permissionSelect+` ORDER BY p.id`)
	if err != nil {
		return nil, wrapQueryError("failed to list permissions", err)
	}
	defer closeWithLog(rows, "rows")
	return scanPermissions(rows)
}

func scanPermissions(rows *sql.Rows) (models.PermissionSet, error) {
	set := models.PermissionSet{}
	for rows.Next() {
		var p models.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Theme, &p.SubTheme, &p.Topic, &p.Metric,
			&p.GeographyType, &p.GeographyCode, &p.Age, &p.Stratum); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		set = append(set, p)
	}
	return set, rows.Err()
}

// CreatePermission stores p and returns it with its id. Theme and sub-theme
// are required; every other field is a wildcard when empty and must name an
// existing entity otherwise. Two permissions with the same eight fields are
// rejected with ErrDuplicatePermission.
func (db *DB) CreatePermission(ctx context.Context, p models.Permission) (models.Permission, error) {
	if p.Name == "" || p.Theme == "" || p.SubTheme == "" {
		return p, fmt.Errorf("permission requires name, theme and sub_theme")
	}

	existing, err := db.ListPermissions(ctx)
	if err != nil {
		return p, err
	}
	for _, e := range existing {
		if e.Key() == p.Key() {
			return p, fmt.Errorf("%w: %s", ErrDuplicatePermission, e.Name)
		}
	}

	err = db.withTx(ctx, "create_permission", "permissions", func(tx *sql.Tx) error {
		refs, err := resolvePermissionRefs(ctx, tx, p)
		if err != nil {
			return err
		}
		return tx.QueryRowContext(ctx, `
			INSERT INTO permissions (
				name, theme_id, sub_theme_id, topic_id, metric_id,
				geography_type_id, geography_id, age_id, stratum_id
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
			append([]interface{}{p.Name}, refs...)...).Scan(&p.ID)
	})
	if err != nil {
		return p, err
	}
	return p, nil
}

// AddGroupPermission links a permission to a group. Linking twice is a no-op.
func (db *DB) AddGroupPermission(ctx context.Context, groupID uuid.UUID, permissionID int64) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO permission_groups (group_id, permission_id)
		VALUES (CAST(? AS UUID), ?) ON CONFLICT DO NOTHING`, groupID.String(), permissionID)
	if err != nil {
		return wrapQueryError("failed to add group permission", err)
	}
	return nil
}

// resolvePermissionRefs returns the eight reference ids in column order,
// nil for wildcards.
func resolvePermissionRefs(ctx context.Context, tx *sql.Tx, p models.Permission) ([]interface{}, error) {
	themeID, err := lookupID(ctx, tx, "theme", p.Theme, `SELECT id FROM themes WHERE name = ?`, p.Theme)
	if err != nil {
		return nil, err
	}
	subThemeID, err := lookupID(ctx, tx, "sub_theme", p.SubTheme, `SELECT id FROM sub_themes WHERE theme_id = ? AND name = ?`, themeID, p.SubTheme)
	if err != nil {
		return nil, err
	}
	refs := []interface{}{themeID, subThemeID}

	var topicID interface{}
	if p.Topic != "" {
		if topicID, err = lookupID(ctx, tx, "topic", p.Topic, `SELECT id FROM topics WHERE sub_theme_id = ? AND name = ?`, subThemeID, p.Topic); err != nil {
			return nil, err
		}
	}
	refs = append(refs, topicID)

	var metricID interface{}
	if p.Metric != "" {
		q := `SELECT m.id FROM metrics m JOIN topics tp ON tp.id = m.topic_id WHERE tp.sub_theme_id = ? AND m.name = ?`
		args := []interface{}{subThemeID, p.Metric}
		if topicID != nil {
			q += ` AND m.topic_id = ?`
			args = append(args, topicID)
		}
		if metricID, err = lookupID(ctx, tx, "metric", p.Metric, q+` LIMIT 1`, args...); err != nil {
			return nil, err
		}
	}
	refs = append(refs, metricID)

	var typeID interface{}
	if p.GeographyType != "" {
		if typeID, err = lookupID(ctx, tx, "geography_type", p.GeographyType, `SELECT id FROM geography_types WHERE name = ?`, p.GeographyType); err != nil {
			return nil, err
		}
	}
	refs = append(refs, typeID)

	var geographyID interface{}
	if p.GeographyCode != "" {
		q := `SELECT id FROM geographies WHERE geography_code = ?`
		args := []interface{}{p.GeographyCode}
		if typeID != nil {
			q += ` AND geography_type_id = ?`
			args = append(args, typeID)
		}
		if geographyID, err = lookupID(ctx, tx, "geography", p.GeographyCode, q+` LIMIT 1`, args...); err != nil {
			return nil, err
		}
	}
	refs = append(refs, geographyID)

	for _, dim := range []struct{ name, table, value string }{
		{"age", "ages", p.Age},
		{"stratum", "strata", p.Stratum},
	} {
		var id interface{}
		if dim.value != "" {
			if id, err = lookupID(ctx, tx, dim.name, dim.value, fmt.Sprintf(`SELECT id FROM %s WHERE name = ?`, dim.table), dim.value); err != nil {
				return nil, err
			}
		}
		refs = append(refs, id)
	}
	return refs, nil
}

func lookupID(ctx context.Context, tx *sql.Tx, dimension, value, q string, args ...interface{}) (interface{}, error) {
	var id int64
	err := tx.QueryRowContext(ctx, q, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s %q", ErrUnknownDimension, dimension, value)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s: %w", dimension, err)
	}
	return id, nil
}
