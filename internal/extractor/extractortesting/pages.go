package extractortesting

import (
	_ "embed"
	"fmt"
	"strings"
)

// ProductPage is complete product page with every price box, description and image.
//
//go:embed product_page.html
var ProductPage string

// Page describes parts of generated product page. Empty parts are left out of the page.
type Page struct {
	Heading     string
	DetailPrice *string
	NormalPrice *string
	NewsPrice   *string
	Description *string
	ImageSrc    *string
}

// HTML renders page parts into product page html.
func (p Page) HTML() string {
	var body strings.Builder

	if p.Heading != "" {
		fmt.Fprintf(&body, "<h1>%s</h1>\n", p.Heading)
	}

	body.WriteString(`<div id="detailText">` + "\n")
	if p.DetailPrice != nil {
		fmt.Fprintf(&body,
			`<div class="price-detail"><div class="buy-buttons"><div class="pricecetelemnew" data-price="%s"></div></div></div>`+"\n",
			*p.DetailPrice,
		)
	}
	if p.NormalPrice != nil {
		fmt.Fprintf(&body,
			`<div class="js-price-box price-box--Normal"><span>old</span><span>%s</span></div>`+"\n",
			*p.NormalPrice,
		)
	}
	if p.NewsPrice != nil {
		fmt.Fprintf(&body,
			`<div class="price-box--News"><div class="price-box__prices"><span><span>%s</span></span></div></div>`+"\n",
			*p.NewsPrice,
		)
	}
	if p.Description != nil {
		fmt.Fprintf(&body, `<div class="nameextc"><span>%s</span></div>`+"\n", *p.Description)
	}
	body.WriteString("</div>\n")

	if p.ImageSrc != nil {
		fmt.Fprintf(&body, `<div id="tabs"><div class="tabsStickyBg"><div><img src="%s" /></div></div></div>`+"\n", *p.ImageSrc)
	}

	return "<html><head></head><body>\n" + body.String() + "</body></html>"
}
