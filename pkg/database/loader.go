package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"
	"time"

	"chips-trial/pkg/models"

	_ "github.com/go-sql-driver/mysql"
)

// DefaultTable is the cleaned transaction table produced by the ingestion step.
const DefaultTable = "QVI_data"

var tableNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Open DSN mariadb:// ou mysql:// → format MySQL driver
func Open(dsn string) (*sql.DB, string, error) {
	mysqlDSN, err := toMySQLDSN(dsn)
	if err != nil {
		return nil, "", err
	}
	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		return nil, "", err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, mysqlDSN, nil
}

func toMySQLDSN(dsn string) (string, error) {
	if strings.HasPrefix(dsn, "mariadb://") || strings.HasPrefix(dsn, "mysql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse dsn: %w", err)
		}
		user := ""
		pass := ""
		if u.User != nil {
			user = u.User.Username()
			pw, _ := u.User.Password()
			pass = pw
		}
		host := u.Host
		db := strings.TrimPrefix(u.Path, "/")
		if user == "" || host == "" || db == "" {
			return "", fmt.Errorf("dsn incomplete (user/host/db)")
		}
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&interpolateParams=true",
			user, pass, host, db), nil
	}
	return dsn, nil
}

// transactionQuery selects the five columns the analysis needs.
func transactionQuery(tableName string) (string, error) {
	if !tableNameRe.MatchString(tableName) {
		return "", fmt.Errorf("invalid table %q", tableName)
	}
	return fmt.Sprintf(`
		SELECT t.STORE_NBR, t.LYLTY_CARD_NBR, t.DATE, t.PROD_QTY, t.TOT_SALES
		FROM %s t
		ORDER BY t.STORE_NBR, t.DATE
	`, tableName), nil
}

// LoadTransactions reads every cleaned transaction of tableName.
func LoadTransactions(ctx context.Context, db *sql.DB, tableName string) ([]models.TransactionRecord, error) {
	q, err := transactionQuery(tableName)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TransactionRecord
	for rows.Next() {
		var (
			storeID int
			card    sql.NullInt64
			date    time.Time
			qty     int
			sales   float64
		)
		if err := rows.Scan(&storeID, &card, &date, &qty, &sales); err != nil {
			return nil, err
		}
		if qty < 0 || sales < 0 {
			return nil, fmt.Errorf("row %d: negative quantity or sales (store=%d)", len(out)+1, storeID)
		}
		rec := models.TransactionRecord{
			StoreID:         storeID,
			Date:            date.UTC(),
			ProductQuantity: qty,
			TotalSales:      sales,
		}
		if card.Valid {
			rec.LoyaltyCardID = int(card.Int64)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.Printf("[DEBUG] table=%s transactions=%d", tableName, len(out))
	return out, nil
}
