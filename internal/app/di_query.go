package app

import (
	"fmt"

	queryUsecase "github.com/spaceandtimelabs/sxt-go-sdk/internal/query/usecase"
)

// QueryExecutor returns the SQL executor. Its requests are authenticated through
// AuthUseCase.
func (c *Container) QueryExecutor() (queryUsecase.Executor, error) {
	var err error
	c.queryExecutorInit.Do(func() {
		c.queryExecutor, err = c.initQueryExecutor()
		if err != nil {
			c.setInitError("queryExecutor", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("queryExecutor"); storedErr != nil {
		return nil, storedErr
	}
	return c.queryExecutor, nil
}

// initQueryExecutor creates the executor with all its dependencies.
func (c *Container) initQueryExecutor() (queryUsecase.Executor, error) {
	if _, err := c.AuthUseCase(); err != nil {
		return nil, fmt.Errorf("failed to get auth use case for query executor: %w", err)
	}
	gateway, err := c.SQLGateway()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql gateway for query executor: %w", err)
	}
	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for query executor: %w", err)
	}

	executor := queryUsecase.NewExecutor(gateway, c.config.ApplicationName, c.Logger())
	return queryUsecase.NewExecutorWithMetrics(executor, businessMetrics), nil
}
