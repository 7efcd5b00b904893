package contract

import (
	"context"

	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/entity"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/repository/specification"

	"github.com/google/uuid"
)

type LeadRepository interface {
	Create(ctx context.Context, lead *entity.Lead) error
	Update(ctx context.Context, lead *entity.Lead) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Lead, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Lead, error)
	FindByIds(ctx context.Context, ids []uuid.UUID) ([]*entity.Lead, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
