package model

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/stores/builder"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
	"github.com/zeromicro/go-zero/core/stringx"
)

var (
	fundingRatesFieldNames          = builder.RawFieldNames(&FundingRates{}, true)
	fundingRatesRows                = strings.Join(fundingRatesFieldNames, ",")
	fundingRatesRowsExpectAutoSet   = strings.Join(stringx.Remove(fundingRatesFieldNames, `"id"`, `"created_at"`), ",")
	fundingRatesRowsWithPlaceHolder = "$1, $2, $3, $4, $5, $6"
)

var _ FundingRatesModel = (*defaultFundingRatesModel)(nil)

type (
	// FundingRatesModel reads and writes the funding_rates table.
	FundingRatesModel interface {
		// Insert writes one row and returns ErrDuplicate when (dex, market, ts_ms) exists.
		Insert(ctx context.Context, data *FundingRates) (sql.Result, error)
		// LatestBatch returns the newest row per (dex, market), ordered by market then dex.
		LatestBatch(ctx context.Context) ([]*FundingRates, error)
		// MarketSince returns rows of one market and dex with ts_ms >= sinceMs, oldest first.
		MarketSince(ctx context.Context, market, dex string, sinceMs int64) ([]*FundingRates, error)
		// Markets lists markets recorded by at least two venues.
		Markets(ctx context.Context) ([]string, error)
		// DeleteBefore removes rows older than beforeMs.
		DeleteBefore(ctx context.Context, beforeMs int64) (int64, error)
	}

	defaultFundingRatesModel struct {
		conn  sqlx.SqlConn
		table string
	}

	FundingRates struct {
		Id             int64           `db:"id"`
		Dex            string          `db:"dex"`
		Market         string          `db:"market"`
		Rate           float64         `db:"rate"`
		AnnualizedRate float64         `db:"annualized_rate"`
		OpenInterest   sql.NullFloat64 `db:"open_interest"`
		TsMs           int64           `db:"ts_ms"`
		CreatedAt      time.Time       `db:"created_at"`
	}
)

// NewFundingRatesModel returns a model for the database table.
func NewFundingRatesModel(conn sqlx.SqlConn) FundingRatesModel {
	return &defaultFundingRatesModel{
		conn:  conn,
		table: `"public"."funding_rates"`,
	}
}

func (m *defaultFundingRatesModel) Insert(ctx context.Context, data *FundingRates) (sql.Result, error) {
	query := fmt.Sprintf("insert into %s (%s) values (%s)", m.table, fundingRatesRowsExpectAutoSet, fundingRatesRowsWithPlaceHolder)
	ret, err := m.conn.ExecCtx(ctx, query, data.Dex, data.Market, data.Rate, data.AnnualizedRate, data.OpenInterest, data.TsMs)
	if isUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	return ret, err
}

func (m *defaultFundingRatesModel) LatestBatch(ctx context.Context) ([]*FundingRates, error) {
	query := fmt.Sprintf(`select %s from (
    select distinct on (dex, market) %s from %s order by dex, market, ts_ms desc
) latest order by market, dex`, fundingRatesRows, fundingRatesRows, m.table)
	var resp []*FundingRates
	if err := m.conn.QueryRowsCtx(ctx, &resp, query); err != nil {
		return nil, err
	}
	return resp, nil
}

func (m *defaultFundingRatesModel) MarketSince(ctx context.Context, market, dex string, sinceMs int64) ([]*FundingRates, error) {
	query := fmt.Sprintf("select %s from %s where market = $1 and dex = $2 and ts_ms >= $3 order by ts_ms", fundingRatesRows, m.table)
	var resp []*FundingRates
	if err := m.conn.QueryRowsCtx(ctx, &resp, query, market, dex, sinceMs); err != nil {
		return nil, err
	}
	return resp, nil
}

func (m *defaultFundingRatesModel) Markets(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf("select market from %s group by market having count(distinct dex) > 1 order by market", m.table)
	var resp []string
	if err := m.conn.QueryRowsCtx(ctx, &resp, query); err != nil {
		return nil, err
	}
	return resp, nil
}

func (m *defaultFundingRatesModel) DeleteBefore(ctx context.Context, beforeMs int64) (int64, error) {
	query := fmt.Sprintf("delete from %s where ts_ms < $1", m.table)
	ret, err := m.conn.ExecCtx(ctx, query, beforeMs)
	if err != nil {
		return 0, err
	}
	return ret.RowsAffected()
}
