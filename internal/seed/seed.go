package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	contractdomain "github.com/smallbiznis/revshare/internal/contract/domain"
	revenuedomain "github.com/smallbiznis/revshare/internal/revenue/domain"
	"gorm.io/gorm"
)

// EnsureDemoData seeds one contract per commission scheme plus a month
// of sale transactions so a fresh install has something to calculate.
// It is a no-op when contracts already exist.
func EnsureDemoData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&contractdomain.Contract{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)

		rate := decimal.NewFromInt(10)
		fixedAmount := decimal.NewFromInt(5000)
		monthly := contractdomain.PeriodMonthly
		hybridRate := decimal.NewFromInt(3)
		hybridFixed := decimal.NewFromInt(2000)

		contracts := []*contractdomain.Contract{
			{
				ID:               node.Generate(),
				CounterpartyName: "Acme Vending",
				Currency:         "USD",
				Status:           contractdomain.ContractStatusActive,
				PaymentTermDays:  14,
				CommissionType:   contractdomain.CommissionTypePercentage,
				CommissionRate:   &rate,
			},
			{
				ID:               node.Generate(),
				CounterpartyName: "Globex Snacks",
				Currency:         "USD",
				Status:           contractdomain.ContractStatusActive,
				PaymentTermDays:  30,
				CommissionType:   contractdomain.CommissionTypeFixed,
				FixedAmount:      &fixedAmount,
				FixedPeriod:      &monthly,
			},
			{
				ID:               node.Generate(),
				CounterpartyName: "Initech Beverages",
				Currency:         "USD",
				Status:           contractdomain.ContractStatusActive,
				PaymentTermDays:  14,
				CommissionType:   contractdomain.CommissionTypeTiered,
				Tiers: contractdomain.CommissionTiers{
					{MinRevenue: decimal.Zero, Rate: decimal.NewFromInt(5)},
					{MinRevenue: decimal.NewFromInt(100000), Rate: decimal.NewFromInt(8)},
					{MinRevenue: decimal.NewFromInt(500000), Rate: decimal.NewFromInt(12)},
				},
			},
			{
				ID:               node.Generate(),
				CounterpartyName: "Umbrella Coffee",
				Currency:         "USD",
				Status:           contractdomain.ContractStatusActive,
				PaymentTermDays:  14,
				CommissionType:   contractdomain.CommissionTypeHybrid,
				CommissionRate:   &hybridRate,
				FixedAmount:      &hybridFixed,
			},
		}

		for _, contract := range contracts {
			if err := tx.Create(contract).Error; err != nil {
				return err
			}

			locationID := node.Generate()
			if err := tx.Create(&contractdomain.ContractLocation{
				ContractID: contract.ID,
				LocationID: locationID,
			}).Error; err != nil {
				return err
			}

			for day := 0; day < 28; day += 7 {
				if err := tx.Create(&revenuedomain.Transaction{
					ID:              node.Generate(),
					LocationID:      locationID,
					Type:            revenuedomain.TransactionTypeSale,
					Amount:          decimal.NewFromInt(int64(25000 + day*1000)),
					TransactionDate: monthStart.AddDate(0, 0, day),
				}).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}
