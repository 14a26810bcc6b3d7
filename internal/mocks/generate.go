package mocks

//go:generate mockery --name EventStore --srcpkg github.com/aevon-lab/telemetry-ingest/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
//go:generate mockery --name OutboxStore --srcpkg github.com/aevon-lab/telemetry-ingest/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
//go:generate mockery --name Publisher --srcpkg github.com/aevon-lab/telemetry-ingest/internal/queue --output ./queue --outpkg queuemocks --with-expecter
