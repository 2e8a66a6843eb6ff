package ledger

import "go.uber.org/fx"

// Module exposes the ledger service via Fx.
var Module = fx.Options(
	fx.Provide(func(s *GormStore) Store { return s }),
	fx.Provide(NewGormStore),
	fx.Provide(NewService),
)
