// Package mocks provides shared test doubles for the service and store
// interfaces.
//
// Service mocks use function fields: set the field for the method under test
// and leave the rest nil to get the default return values.
//
//	catalog := &mocks.MockCatalogService{
//	    GetQuestionFn: func(ctx context.Context, id uuid.UUID) (*service.QuestionDetail, error) {
//	        return nil, service.ErrNotFound
//	    },
//	}
//
// Store mocks embed testify's mock.Mock and are configured with On/Return.
package mocks
