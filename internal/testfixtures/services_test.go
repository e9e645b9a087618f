package testfixtures

import (
	"context"
	"testing"

	"github.com/example/dance-group-manager/internal/application"
)

type capturingUserRepo struct {
	created application.User
	hash    string
}

func (c *capturingUserRepo) CreateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	c.created = user
	c.hash = passwordHash
	return user, nil
}

func (c *capturingUserRepo) GetUser(ctx context.Context, id string) (application.User, error) {
	return application.User{}, application.ErrNotFound
}

func (c *capturingUserRepo) UpdateUser(ctx context.Context, user application.User) (application.User, error) {
	return user, nil
}

func (c *capturingUserRepo) DeleteUser(ctx context.Context, id string) error {
	return nil
}

func (c *capturingUserRepo) ListUsers(ctx context.Context) ([]application.User, error) {
	return nil, nil
}

func TestServiceFactoryNewUserService(t *testing.T) {
	factory := NewServiceFactory()
	repo := &capturingUserRepo{}

	svc := factory.NewUserService(UserServiceDeps{Users: repo})
	principal := application.Principal{UserID: "admin", IsAdmin: true}
	input := application.UserInput{Email: "dancer@example.com", DisplayName: "김지은", Password: "passw0rd!"}

	user, err := svc.CreateUser(context.Background(), application.CreateUserParams{Principal: principal, Input: input})
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}

	if user.ID != "id-1" {
		t.Fatalf("expected generated ID id-1, got %q", user.ID)
	}
	if repo.created.ID != user.ID {
		t.Fatalf("repository received unexpected ID: %q", repo.created.ID)
	}
	if repo.hash != "passw0rd!" {
		t.Fatalf("expected identity hasher output, got %q", repo.hash)
	}
	if !user.CreatedAt.Equal(factory.Clock.Current()) {
		t.Fatalf("expected timestamp %v, got %v", factory.Clock.Current(), user.CreatedAt)
	}
}

func TestCrewTreeFixture(t *testing.T) {
	tree := NewCrewTree()

	if tree.Team.ParentGroupID == nil || *tree.Team.ParentGroupID != tree.Crew.ID {
		t.Fatalf("expected the team to sit beneath the crew, got %+v", tree.Team)
	}
	if tree.Project.GroupID != tree.Team.ID {
		t.Fatalf("expected the project to belong to the team, got %+v", tree.Project)
	}
	if len(tree.Memberships) != 3 {
		t.Fatalf("expected 3 memberships, got %d", len(tree.Memberships))
	}

	roles := map[string]string{}
	for _, membership := range tree.Memberships {
		roles[membership.UserID] = membership.Role
	}
	if roles[tree.Leader.ID] != "leader" {
		t.Errorf("expected the leader role, got %q", roles[tree.Leader.ID])
	}
	if roles[tree.SubLeader.ID] != "sub_leader" {
		t.Errorf("expected the sub_leader role, got %q", roles[tree.SubLeader.ID])
	}
	if roles[tree.Member.ID] != "member" {
		t.Errorf("expected the member role, got %q", roles[tree.Member.ID])
	}
}
