package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/match --output domain/match --outpkg matchmock --filename repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name GameProvider --dir ../usecase --inpackage --testonly --output ../usecase --filename mock_game_provider_test.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name ProfileProvider --dir ../usecase --inpackage --testonly --output ../usecase --filename mock_profile_provider_test.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name MatchIngester --dir ../interfaces/httpapi --inpackage --testonly --output ../interfaces/httpapi --filename mock_match_ingester_test.go
