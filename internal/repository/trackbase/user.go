package trackbase

import (
	"github.com/cmlabs-hris/trackbase-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/trackbase-backend-go/internal/pkg/trackbase"
)

func NewUserRepository(client *trackbase.Client) user.UserRepository {
	return client
}
