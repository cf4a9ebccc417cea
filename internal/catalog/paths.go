package catalog

import "fmt"

// PathResolver derives the media folder for a node from the customIds of
// itself and its ancestors. It performs no lookups; the engine resolves the
// ancestor chain before calling in. The root folder comes from configuration
// at construction time.
type PathResolver struct {
	root string
}

func NewPathResolver(root string) *PathResolver {
	return &PathResolver{root: root}
}

func (r *PathResolver) Category(categoryCID string) (string, error) {
	if categoryCID == "" {
		return "", fmt.Errorf("%w: category", ErrMissingAncestor)
	}
	return fmt.Sprintf("%s/Categories/%s", r.root, categoryCID), nil
}

func (r *PathResolver) SubCategory(categoryCID, subCategoryCID string) (string, error) {
	base, err := r.Category(categoryCID)
	if err != nil {
		return "", err
	}
	if subCategoryCID == "" {
		return "", fmt.Errorf("%w: sub-category", ErrMissingAncestor)
	}
	return fmt.Sprintf("%s/Sub-Categories/%s", base, subCategoryCID), nil
}

func (r *PathResolver) Brand(categoryCID, subCategoryCID, brandCID string) (string, error) {
	base, err := r.SubCategory(categoryCID, subCategoryCID)
	if err != nil {
		return "", err
	}
	if brandCID == "" {
		return "", fmt.Errorf("%w: brand", ErrMissingAncestor)
	}
	return fmt.Sprintf("%s/Brands/%s", base, brandCID), nil
}

func (r *PathResolver) Product(categoryCID, subCategoryCID, brandCID, imagesCID string) (string, error) {
	base, err := r.Brand(categoryCID, subCategoryCID, brandCID)
	if err != nil {
		return "", err
	}
	if imagesCID == "" {
		return "", fmt.Errorf("%w: product", ErrMissingAncestor)
	}
	return fmt.Sprintf("%s/Products/%s", base, imagesCID), nil
}
