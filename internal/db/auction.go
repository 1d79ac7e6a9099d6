package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/Spok95/class-points-bot/internal/models"
	"github.com/Spok95/class-points-bot/internal/points"
)

const auctionSelect = `
	SELECT a.id, a.reward_id, r.name, a.status, a.current_price, a.highest_bidder_id, s.name, a.created_at, a.finished_at
	FROM auctions a
	JOIN rewards r ON r.id = a.reward_id
	LEFT JOIN students s ON s.id = a.highest_bidder_id`

func scanAuction(sc scanner) (models.Auction, error) {
	var a models.Auction
	err := sc.Scan(&a.ID, &a.RewardID, &a.RewardName, &a.Status, &a.CurrentPrice,
		&a.HighestBidderID, &a.BidderName, &a.CreatedAt, &a.FinishedAt)
	return a, err
}

// StartAuction отменяет текущий активный аукцион и открывает новый.
func StartAuction(ctx context.Context, database *sql.DB, rewardID int64, startPrice int, at time.Time) (int64, error) {
	var id int64
	err := WithTx(ctx, database, func(tx *sql.Tx) error {
		rw, err := getReward(ctx, tx, rewardID, true)
		if err != nil {
			return err
		}
		if rw.Stock <= 0 {
			return models.Conflict(models.CodeOutOfStock, "reward %q is out of stock", rw.Name)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE auctions SET status = 'cancelled', finished_at = $1
			WHERE status = 'active'`, at); err != nil {
			return mapErr("cancel auctions", err)
		}
		err = tx.QueryRowContext(ctx, `
			INSERT INTO auctions (reward_id, status, current_price, created_at)
			VALUES ($1, 'active', $2, $3)
			RETURNING id`, rewardID, startPrice, at).Scan(&id)
		return mapErr("insert auction", err)
	})
	return id, err
}

// CurrentAuction: активный аукцион или nil.
func CurrentAuction(ctx context.Context, database *sql.DB) (*models.Auction, error) {
	a, err := scanAuction(database.QueryRowContext(ctx, auctionSelect+` WHERE a.status = 'active'`))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, mapErr("current auction", err)
	}
	return &a, nil
}

func GetAuction(ctx context.Context, q Querier, id int64) (*models.Auction, error) {
	a, err := scanAuction(q.QueryRowContext(ctx, auctionSelect+` WHERE a.id = $1`, id))
	if isNoRows(err) {
		return nil, models.NotFound("auction", id)
	}
	if err != nil {
		return nil, mapErr("get auction", err)
	}
	return &a, nil
}

// PlaceBid принимает ставку одним условным UPDATE: аукцион активен и ставка выше текущей.
func PlaceBid(ctx context.Context, database *sql.DB, auctionID, studentID int64, amount int) error {
	var exists bool
	if err := database.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM students WHERE id = $1)`, studentID).Scan(&exists); err != nil {
		return mapErr("check bidder", err)
	}
	if !exists {
		return models.NotFound("student", studentID)
	}

	res, err := database.ExecContext(ctx, `
		UPDATE auctions SET current_price = $1, highest_bidder_id = $2
		WHERE id = $3 AND status = 'active' AND current_price < $1`, amount, studentID, auctionID)
	if err != nil {
		return mapErr("place bid", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}

	if err := database.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM auctions WHERE id = $1)`, auctionID).Scan(&exists); err != nil {
		return mapErr("check auction", err)
	}
	if !exists {
		return models.NotFound("auction", auctionID)
	}
	return models.Conflict(models.CodeStaleOrLowBid, "bid %d rejected for auction %d", amount, auctionID)
}

// FinishAuction закрывает аукцион; победитель платит цену, склад уменьшается.
func FinishAuction(ctx context.Context, database *sql.DB, auctionID int64, at time.Time) (*models.Auction, error) {
	var out *models.Auction
	err := WithTx(ctx, database, func(tx *sql.Tx) error {
		var (
			status     string
			rewardID   int64
			price      int
			bidder     *int64
			rewardName string
		)
		err := tx.QueryRowContext(ctx, `
			SELECT a.status, a.reward_id, a.current_price, a.highest_bidder_id, r.name
			FROM auctions a
			JOIN rewards r ON r.id = a.reward_id
			WHERE a.id = $1
			FOR UPDATE OF a`, auctionID).Scan(&status, &rewardID, &price, &bidder, &rewardName)
		if isNoRows(err) {
			return models.NotFound("auction", auctionID)
		}
		if err != nil {
			return mapErr("lock auction", err)
		}
		if models.AuctionStatus(status) != models.AuctionActive {
			return models.Conflict(models.CodeNotActive, "auction %d is %s", auctionID, status)
		}

		if bidder != nil {
			if err := lockStudents(ctx, tx, []int64{*bidder}); err != nil {
				return err
			}
			if price > 0 {
				if err := applyDelta(ctx, tx, *bidder, -price); err != nil {
					return err
				}
				if err := insertHistory(ctx, tx, *bidder, -price, points.ReasonAuctionPrefix+rewardName,
					points.TeacherAuction, models.StatusApproved, &rewardID, at); err != nil {
					return err
				}
			}
			if err := takeStock(ctx, tx, rewardID); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE auctions SET status = 'finished', finished_at = $2 WHERE id = $1`, auctionID, at); err != nil {
			return mapErr("finish auction", err)
		}
		out, err = GetAuction(ctx, tx, auctionID)
		return err
	})
	return out, err
}
