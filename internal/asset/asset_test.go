package asset_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/asset-lifecycle/internal/asset"
	"github.com/frahmantamala/asset-lifecycle/internal/core/enums"
)

var _ = Describe("Asset", func() {
	purchased := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

	withPurchase := func(cost float64, years int) *asset.Asset {
		return &asset.Asset{PurchaseCost: &cost, UsefulLifeYears: &years, PurchaseDate: &purchased}
	}

	Describe("BookValue", func() {
		It("depreciates in a straight line", func() {
			a := withPurchase(1200, 4)
			value := a.BookValue(purchased.AddDate(2, 0, 0))
			Expect(value).NotTo(BeNil())
			Expect(*value).To(BeNumerically("~", 600, 1))
		})

		It("never goes below zero", func() {
			a := withPurchase(1200, 3)
			Expect(*a.BookValue(purchased.AddDate(10, 0, 0))).To(BeZero())
		})

		It("keeps the full cost before the purchase date", func() {
			a := withPurchase(900, 3)
			Expect(*a.BookValue(purchased.AddDate(0, -1, 0))).To(Equal(900.0))
		})

		It("is unknown without cost, life or date", func() {
			Expect((&asset.Asset{}).BookValue(purchased)).To(BeNil())
			zero := 0
			a := withPurchase(100, 1)
			a.UsefulLifeYears = &zero
			Expect(a.BookValue(purchased)).To(BeNil())
		})
	})

	It("locks the record when disposed", func() {
		a := &asset.Asset{Status: enums.AssetRetired}
		a.ChangeStatus(enums.AssetDisposed, purchased)
		Expect(a.IsReadonly).To(BeTrue())

		b := &asset.Asset{Status: enums.AssetSpare}
		b.ChangeStatus(enums.AssetUnderRepair, purchased)
		Expect(b.IsReadonly).To(BeFalse())
	})

	Describe("CreateAssetDTO", func() {
		valid := func() asset.CreateAssetDTO {
			return asset.CreateAssetDTO{
				AssetTag: "A-1", Type: "laptop", Manufacturer: "Dell", Model: "XPS",
				SerialNumber: "SN1", Ownership: "OrgB",
			}
		}

		It("accepts a minimal asset", func() {
			Expect(valid().Validate()).To(Succeed())
		})

		It("only lets new assets start as planned, ordered or spare", func() {
			dto := valid()
			dto.Status = "in_use"
			Expect(dto.Validate()).To(HaveOccurred())
			dto.Status = "ordered"
			Expect(dto.Validate()).To(Succeed())
		})

		It("rejects negative costs and bad dates", func() {
			dto := valid()
			cost := -1.0
			dto.PurchaseCost = &cost
			Expect(dto.Validate()).To(HaveOccurred())

			dto = valid()
			date := "01/02/2024"
			dto.PurchaseDate = &date
			Expect(dto.Validate()).To(HaveOccurred())
		})
	})
})
