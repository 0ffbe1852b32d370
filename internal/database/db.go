package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open はDATABASE_URLで指定されたPostgreSQLへの接続プールを生成する。
// 個人の衣類管理という規模を想定した控えめなプール設定にしている。
// sql.Openは遅延接続のため、起動時の疎通確認は呼び出し側でPingすること。
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}
