package booking

import (
	"context"
	"fmt"

	"ms-flights/internal/errs"
	"ms-flights/internal/models"

	qrcode "github.com/skip2/go-qrcode"
)

const qrSize = 256

// ConfirmationQR renders the e-ticket QR code for a paid or completed order.
// The code encodes the order number, which check-in agents resolve back to
// the order.
func (s *OrderService) ConfirmationQR(ctx context.Context, orderID, userID string) ([]byte, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("order %s belongs to another user: %w", order.OrderNumber, errs.ErrForbidden)
	}
	if order.Status != models.StatusPaid && order.Status != models.StatusCompleted {
		return nil, fmt.Errorf("no confirmation for order in state %s: %w", order.Status, errs.ErrInvalidState)
	}

	png, err := qrcode.Encode(order.OrderNumber, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate confirmation QR: %w", err)
	}
	return png, nil
}
