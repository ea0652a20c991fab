// Package anvil provides a generic repository service: it validates DTOs,
// maps them onto entities through a per-entity Behavior and persists them
// through a Store, by default the Bun repository from package repository.
//
//	svc := anvil.NewDefaultService[User, UserDTO](anvil.BuildFunc[User, UserDTO](buildUser))
//	page, err := svc.Filter(ctx, types.Options{Search: "ada", SearchFields: []string{"name"}, Take: 20})
package anvil
