package mysql

// ---- runs & items ----

const insertRunSQL = `
INSERT INTO sync_runs
  (token, tenant_id, total, status, successful, failed, started_at)
VALUES
  (?, ?, ?, ?, 0, 0, ?)
`

const insertItemsPrefix = "INSERT INTO sync_items\n  (run_id, position, source_id, type, status)\nVALUES "

const markRunningSQL = `
UPDATE sync_runs SET status = 'running'
WHERE id = ? AND status = 'pending'
`

const updateItemSQL = `
UPDATE sync_items SET
  type         = ?,
  status       = ?,
  partner_id   = ?,
  error        = ?,
  processed_at = ?
WHERE run_id = ? AND source_id = ? AND status = 'pending'
`

const completeRunSQL = `
UPDATE sync_runs SET
  status       = 'completed',
  successful   = ?,
  failed       = ?,
  completed_at = ?
WHERE id = ?
`

const runColumns = `id, token, tenant_id, total, status, successful, failed, started_at, completed_at`

const runByTokenSQL = `SELECT ` + runColumns + ` FROM sync_runs WHERE tenant_id = ? AND token = ?`

const listRunsSQL = `SELECT ` + runColumns + ` FROM sync_runs WHERE tenant_id = ? ORDER BY id DESC LIMIT ?`

const itemsSQL = `
SELECT run_id, source_id, type, status, partner_id, error, processed_at
FROM sync_items
WHERE run_id = ?
ORDER BY position
`

// ---- records ----

const sourceInfoSQL = `SELECT kind, parsed FROM source_items WHERE tenant_id = ? AND id = ?`

const reservationBySourceSQL = `
SELECT id, tenant_id, source_id, hotel_name, partner_hotel_id, check_in, check_out,
       adults, children, room_code, board_code, total_price, currency, voucher_no,
       synced, partner_id
FROM reservations
WHERE tenant_id = ? AND source_id = ?
`

const guestsSQL = `
SELECT title, first_name, last_name, birth_date, age, nationality
FROM reservation_guests
WHERE reservation_id = ?
ORDER BY position
`

const stopSaleBySourceSQL = `
SELECT id, tenant_id, source_id, hotel_name, partner_hotel_id, date_from, date_to,
       room_codes, board_codes, is_close, reason, synced, partner_id
FROM stop_sales
WHERE tenant_id = ? AND source_id = ?
`

const markReservationSyncedSQL = `
UPDATE reservations SET synced = 1, partner_id = ?, synced_at = CURRENT_TIMESTAMP(3)
WHERE tenant_id = ? AND id = ?
`

const markStopSaleSyncedSQL = `
UPDATE stop_sales SET synced = 1, partner_id = ?, synced_at = CURRENT_TIMESTAMP(3)
WHERE tenant_id = ? AND id = ?
`

// ---- hotel mappings ----

const getMappingSQL = `
SELECT tenant_id, original_name, normalized_name, partner_hotel_id, partner_hotel_name, created_at
FROM hotel_mappings
WHERE tenant_id = ? AND normalized_name = ?
`

const upsertMappingSQL = `
INSERT INTO hotel_mappings
  (tenant_id, normalized_name, original_name, partner_hotel_id, partner_hotel_name, created_at)
VALUES
  (?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  original_name      = VALUES(original_name),
  partner_hotel_id   = VALUES(partner_hotel_id),
  partner_hotel_name = VALUES(partner_hotel_name),
  created_at         = VALUES(created_at)
`

const listMappingsSQL = `
SELECT tenant_id, original_name, normalized_name, partner_hotel_id, partner_hotel_name, created_at
FROM hotel_mappings
WHERE tenant_id = ?
ORDER BY normalized_name
LIMIT ?
`

const deleteMappingSQL = `DELETE FROM hotel_mappings WHERE tenant_id = ? AND normalized_name = ?`
