package git

import "context"

// IClient is the subset of git the provisioner relies on.
type IClient interface {
	Clone(ctx context.Context, repoURL, directory string) error
	Fetch(ctx context.Context, directory string) error
	ResetHard(ctx context.Context, directory, revision string) error
	RevParse(ctx context.Context, directory, revision string) (string, error)
	HeadHash(directory string) (string, error)
}
